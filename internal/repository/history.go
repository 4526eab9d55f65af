package repository

import (
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Record(pair string, action model.SyncAction, direction string, syncErr error) error {
	status := model.StatusSuccess
	errMsg := ""
	if syncErr != nil {
		status = model.StatusFailed
		errMsg = syncErr.Error()
	}

	history := model.History{
		PairName:  pair,
		Action:    action,
		Status:    status,
		Direction: direction,
		ErrMsg:    errMsg,
		SyncedAt:  time.Now(),
	}

	return r.db.Create(&history).Error
}

type Stats struct {
	Total     int64
	Success   int64
	Failed    int64
	Conflicts int64
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := r.db.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&model.History{}).
		Where("action = ?", model.ActionConflict).
		Count(&stats.Conflicts).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Order("synced_at desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetByPair(pair string, limit int) ([]model.History, error) {
	var histories []model.History
	result := r.db.
		Where("pair_name = ?", pair).
		Order("synced_at desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}
