package repository

import (
	"errors"
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
	require.NoError(t, db.AutoMigrate(&model.History{}))

	return db
}

func TestHistoryRepository_RecordAndGetRecent(t *testing.T) {
	t.Parallel()

	r := NewHistoryRepository(openTestDB(t))

	require.NoError(t, r.Record("notes", model.ActionPropagate, "source->target", nil))
	require.NoError(t, r.Record("notes", model.ActionMerge, "", nil))
	require.NoError(t, r.Record("todo", model.ActionConflict, "", nil))
	require.NoError(t, r.Record("todo", model.ActionPropagate, "target->source", errors.New("disk full")))

	recent, err := r.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	all, err := r.GetRecent(10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestHistoryRepository_RecordFailureKeepsError(t *testing.T) {
	t.Parallel()

	r := NewHistoryRepository(openTestDB(t))
	require.NoError(t, r.Record("notes", model.ActionPropagate, "", errors.New("disk full")))

	recent, err := r.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	assert.Equal(t, model.StatusFailed, recent[0].Status)
	assert.Equal(t, "disk full", recent[0].ErrMsg)
}

func TestHistoryRepository_GetByPair(t *testing.T) {
	t.Parallel()

	r := NewHistoryRepository(openTestDB(t))

	require.NoError(t, r.Record("notes", model.ActionPropagate, "source->target", nil))
	require.NoError(t, r.Record("todo", model.ActionMerge, "", nil))
	require.NoError(t, r.Record("notes", model.ActionResolve, "", nil))

	entries, err := r.GetByPair("notes", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, h := range entries {
		assert.Equal(t, "notes", h.PairName)
	}

	limited, err := r.GetByPair("notes", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryRepository_GetStats(t *testing.T) {
	t.Parallel()

	r := NewHistoryRepository(openTestDB(t))

	require.NoError(t, r.Record("notes", model.ActionPropagate, "source->target", nil))
	require.NoError(t, r.Record("notes", model.ActionConflict, "", nil))
	require.NoError(t, r.Record("todo", model.ActionPropagate, "", errors.New("disk full")))

	stats, err := r.GetStats()
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Conflicts)
}
