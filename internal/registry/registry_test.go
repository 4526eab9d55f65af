package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePair(t *testing.T, name string) model.SyncPair {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, name+".md")
	target := filepath.Join(dir, "cloud")

	require.NoError(t, os.WriteFile(source, []byte("content\n"), 0644))
	require.NoError(t, os.MkdirAll(target, 0755))

	return model.SyncPair{Name: name, SourcePath: source, TargetFolder: target}
}

func TestLoad_MissingFileIsEmptyRegistry(t *testing.T) {
	t.Parallel()

	doc, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, doc.Pairs)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sync-config.json")
	pair := makePair(t, "notes")

	require.NoError(t, Save(path, Document{Pairs: []model.SyncPair{pair}}))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Pairs, 1)
	assert.Equal(t, pair, doc.Pairs[0])
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sync-config.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadValid_SkipsBrokenEntries(t *testing.T) {
	t.Parallel()

	good := makePair(t, "good")
	missing := model.SyncPair{
		Name:         "missing",
		SourcePath:   filepath.Join(t.TempDir(), "nope.md"),
		TargetFolder: t.TempDir(),
	}
	unnamed := makePair(t, "temp")
	unnamed.Name = ""

	path := filepath.Join(t.TempDir(), "sync-config.json")
	require.NoError(t, Save(path, Document{Pairs: []model.SyncPair{good, missing, unnamed}}))

	pairs, err := LoadValid(path)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "good", pairs[0].Name)
}

func TestLoadValid_SkipsDuplicateNames(t *testing.T) {
	t.Parallel()

	a := makePair(t, "same")
	b := makePair(t, "same")

	path := filepath.Join(t.TempDir(), "sync-config.json")
	require.NoError(t, Save(path, Document{Pairs: []model.SyncPair{a, b}}))

	pairs, err := LoadValid(path)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid pair", func(t *testing.T) {
		assert.NoError(t, Validate(makePair(t, "ok")))
	})

	t.Run("source is a directory", func(t *testing.T) {
		pair := makePair(t, "dir")
		pair.SourcePath = pair.TargetFolder
		assert.Error(t, Validate(pair))
	})

	t.Run("target is a file", func(t *testing.T) {
		pair := makePair(t, "file")
		pair.TargetFolder = pair.SourcePath
		assert.Error(t, Validate(pair))
	})

	t.Run("relative paths rejected", func(t *testing.T) {
		pair := makePair(t, "rel")
		pair.SourcePath = "notes.md"
		assert.Error(t, Validate(pair))
	})
}
