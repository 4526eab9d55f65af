package model

import (
	"path/filepath"
	"time"
)

type Side string

const (
	SideSource Side = "SOURCE"
	SideTarget Side = "TARGET"
)

// SyncPair is one configured file association: a source file and the folder
// holding its counterpart. Created and removed only by the external manager;
// the daemon treats it as read-only.
type SyncPair struct {
	Name         string `json:"name"`
	SourcePath   string `json:"source"`
	TargetFolder string `json:"target"`
}

func (p SyncPair) TargetPath() string {
	return filepath.Join(p.TargetFolder, filepath.Base(p.SourcePath))
}

func (p SyncPair) PathFor(side Side) string {
	if side == SideTarget {
		return p.TargetPath()
	}
	return p.SourcePath
}

type ChangeEvent struct {
	Pair       string
	Side       Side
	ObservedAt time.Time
}

type PairState string

const (
	StateConverged PairState = "CONVERGED"
	StateSyncing   PairState = "SYNCING"
	StateConflict  PairState = "CONFLICT"
)

type PairSnapshot struct {
	Pair      string     `json:"pair"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	State     PairState  `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	Synced    int        `json:"synced"`
	Conflicts int        `json:"conflicts"`
	Failed    int        `json:"failed"`
	LastSync  *time.Time `json:"last_sync"`
}
