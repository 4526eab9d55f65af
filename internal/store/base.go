package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaseStore persists the last converged content per pair. Only the pair's
// state-machine worker touches a given key, so no locking is required beyond
// what the backend already provides.
type BaseStore interface {
	Get(pair string) ([]byte, bool, error)
	Put(pair string, content []byte) error
	Delete(pair string) error
}

type DBBaseStore struct {
	db *gorm.DB
}

func NewDBBaseStore(db *gorm.DB) *DBBaseStore {
	return &DBBaseStore{db: db}
}

func (s *DBBaseStore) Get(pair string) ([]byte, bool, error) {
	var snap model.BaseSnapshot
	err := s.db.Where("pair_name = ?", pair).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load base snapshot: %w", err)
	}

	return snap.Content, true, nil
}

func (s *DBBaseStore) Put(pair string, content []byte) error {
	snap := model.BaseSnapshot{
		PairName:   pair,
		Content:    content,
		Hash:       util.Checksum(content),
		CapturedAt: time.Now(),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "hash", "captured_at", "updated_at"}),
	}).Create(&snap).Error

	if err != nil {
		return fmt.Errorf("failed to save base snapshot: %w", err)
	}

	return nil
}

func (s *DBBaseStore) Delete(pair string) error {
	err := s.db.Where("pair_name = ?", pair).Delete(&model.BaseSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete base snapshot: %w", err)
	}

	return nil
}

// MemoryBaseStore backs tests and keeps the state machine free of any direct
// persistence dependency.
type MemoryBaseStore struct {
	mu    sync.Mutex
	bases map[string][]byte
}

func NewMemoryBaseStore() *MemoryBaseStore {
	return &MemoryBaseStore{bases: make(map[string][]byte)}
}

func (s *MemoryBaseStore) Get(pair string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.bases[pair]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), content...), true, nil
}

func (s *MemoryBaseStore) Put(pair string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bases[pair] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryBaseStore) Delete(pair string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bases, pair)
	return nil
}
