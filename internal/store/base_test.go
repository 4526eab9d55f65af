package store

import (
	"path/filepath"
	"testing"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.BaseSnapshot{}))

	return db
}

func TestDBBaseStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewDBBaseStore(openTestDB(t))

	_, ok, err := s.Get("notes")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("notes", []byte("A\nB\nC\n")))

	content, ok, err := s.Get("notes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A\nB\nC\n", string(content))
}

func TestDBBaseStore_PutOverwrites(t *testing.T) {
	t.Parallel()

	s := NewDBBaseStore(openTestDB(t))

	require.NoError(t, s.Put("notes", []byte("v1\n")))
	require.NoError(t, s.Put("notes", []byte("v2\n")))

	content, ok, err := s.Get("notes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2\n", string(content))
}

func TestDBBaseStore_Delete(t *testing.T) {
	t.Parallel()

	s := NewDBBaseStore(openTestDB(t))

	require.NoError(t, s.Put("notes", []byte("v1\n")))
	require.NoError(t, s.Delete("notes"))

	_, ok, err := s.Get("notes")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete("notes"))
}

func TestDBBaseStore_PairsAreIndependent(t *testing.T) {
	t.Parallel()

	s := NewDBBaseStore(openTestDB(t))

	require.NoError(t, s.Put("a", []byte("content a\n")))
	require.NoError(t, s.Put("b", []byte("content b\n")))
	require.NoError(t, s.Delete("a"))

	content, ok, err := s.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "content b\n", string(content))
}

func TestMemoryBaseStore_CopiesContent(t *testing.T) {
	t.Parallel()

	s := NewMemoryBaseStore()

	original := []byte("mutable\n")
	require.NoError(t, s.Put("p", original))
	original[0] = 'X'

	content, ok, err := s.Get("p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mutable\n", string(content))
}
