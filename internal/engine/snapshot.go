package engine

import (
	"sync"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
)

// snapshotState holds the observable counters for one pair. It is the only
// worker state read from outside the worker goroutine (by the status API),
// hence the lock.
type snapshotState struct {
	mu   sync.RWMutex
	snap model.PairSnapshot
}

func (s *snapshotState) init(pair model.SyncPair, state model.PairState) {
	s.snap = model.PairSnapshot{
		Pair:      pair.Name,
		Source:    pair.SourcePath,
		Target:    pair.TargetPath(),
		State:     state,
		StartedAt: time.Now(),
	}
}

func (s *snapshotState) get() model.PairSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *snapshotState) state() model.PairState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State
}

func (s *snapshotState) setState(state model.PairState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = state
}

func (s *snapshotState) recordSuccess(action model.SyncAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snap.LastSync = &now

	if action == model.ActionConflict {
		s.snap.Conflicts++
	} else {
		s.snap.Synced++
	}
}

func (s *snapshotState) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Failed++
}
