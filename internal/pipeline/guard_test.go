package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWriteGuard_SuppressesExpectedWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	guard := NewWriteGuard(time.Minute)
	guard.Expect(path, []byte("synced content\n"))
	writeFile(t, path, "synced content\n")

	require.False(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_PassesForeignWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	guard := NewWriteGuard(time.Minute)
	guard.Expect(path, []byte("what the engine wrote\n"))
	writeFile(t, path, "what the user wrote instead\n")

	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_SuppressesUnchangedContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "stable\n")

	guard := NewWriteGuard(time.Minute)

	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
	// Editor touched mtime but bytes are identical.
	require.False(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_ChangedContentPassesAgain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "v1\n")

	guard := NewWriteGuard(time.Minute)
	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))

	writeFile(t, path, "v2\n")
	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_ExpectedMarkerIsOneShot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	guard := NewWriteGuard(time.Minute)
	guard.Expect(path, []byte("once\n"))
	writeFile(t, path, "once\n")

	require.False(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))

	// The same content arriving later is the dedupe cache's business, but a
	// genuinely new edit must flow.
	writeFile(t, path, "edited by user\n")
	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_ExpiredMarkerDoesNotSuppress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	guard := NewWriteGuard(time.Nanosecond)
	guard.Expect(path, []byte("stale\n"))
	time.Sleep(5 * time.Millisecond)

	writeFile(t, path, "stale\n")
	// Marker expired; the dedupe cache still knows the hash from Expect, so
	// this stays suppressed as unchanged content rather than as a self-write.
	require.False(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))

	writeFile(t, path, "fresh\n")
	require.True(t, guard.admit(model.FileEvent{Type: model.EventWrite, Path: path}))
}

func TestWriteGuard_DeletionPassesThrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")

	guard := NewWriteGuard(time.Minute)
	require.True(t, guard.admit(model.FileEvent{Type: model.EventRemove, Path: path}))
}

func TestWriteGuard_RunFiltersChannel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	selfWrite := filepath.Join(dir, "self.txt")
	userWrite := filepath.Join(dir, "user.txt")

	guard := NewWriteGuard(time.Minute)
	guard.Expect(selfWrite, []byte("engine\n"))
	writeFile(t, selfWrite, "engine\n")
	writeFile(t, userWrite, "user\n")

	inCh := make(chan model.FileEvent, 4)
	outCh := guard.Run(inCh)

	inCh <- model.FileEvent{Type: model.EventWrite, Path: selfWrite}
	inCh <- model.FileEvent{Type: model.EventWrite, Path: userWrite}
	close(inCh)

	var got []string
	for event := range outCh {
		got = append(got, event.Path)
	}

	require.Equal(t, []string{userWrite}, got)
}
