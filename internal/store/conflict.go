package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/util"
)

// ConflictStore persists active conflicts across restarts. At most one record
// exists per pair.
type ConflictStore interface {
	Get(pair string) (model.ConflictRecord, bool, error)
	Put(record model.ConflictRecord) error
	Delete(pair string) error
	List() ([]model.ConflictRecord, error)
}

// FileConflictStore keeps the records in a JSON document mapping pair name to
// record. The file doubles as the interface the status-bar UI reads, so its
// shape is a contract, not an implementation detail.
type FileConflictStore struct {
	mu      sync.Mutex
	path    string
	records map[string]model.ConflictRecord
}

func NewFileConflictStore(path string) (*FileConflictStore, error) {
	s := &FileConflictStore{
		path:    path,
		records: make(map[string]model.ConflictRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		// The store stays usable either way; callers decide whether a lost
		// conflict state is fatal.
		return s, fmt.Errorf("failed to read conflicts file: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		// Corrupt state degrades to "no active conflicts" rather than
		// blocking startup; the caller logs it.
		return s, fmt.Errorf("failed to parse conflicts file: %w", err)
	}

	return s, nil
}

func (s *FileConflictStore) Get(pair string) (model.ConflictRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[pair]
	return record, ok, nil
}

func (s *FileConflictStore) Put(record model.ConflictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Pair] = record
	return s.flush()
}

func (s *FileConflictStore) Delete(pair string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[pair]; !ok {
		return nil
	}

	delete(s.records, pair)
	return s.flush()
}

func (s *FileConflictStore) List() ([]model.ConflictRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]model.ConflictRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	return records, nil
}

func (s *FileConflictStore) flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conflicts: %w", err)
	}

	return util.AtomicWrite(s.path, append(data, '\n'))
}

type MemoryConflictStore struct {
	mu      sync.Mutex
	records map[string]model.ConflictRecord
}

func NewMemoryConflictStore() *MemoryConflictStore {
	return &MemoryConflictStore{records: make(map[string]model.ConflictRecord)}
}

func (s *MemoryConflictStore) Get(pair string) (model.ConflictRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[pair]
	return record, ok, nil
}

func (s *MemoryConflictStore) Put(record model.ConflictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Pair] = record
	return nil
}

func (s *MemoryConflictStore) Delete(pair string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, pair)
	return nil
}

func (s *MemoryConflictStore) List() ([]model.ConflictRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]model.ConflictRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	return records, nil
}
