package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncAction string

const (
	ActionPropagate SyncAction = "PROPAGATE"
	ActionMerge     SyncAction = "MERGE"
	ActionConflict  SyncAction = "CONFLICT"
	ActionResolve   SyncAction = "RESOLVE"
	ActionNone      SyncAction = "NONE"
)

type SyncStatus string

const (
	StatusSuccess SyncStatus = "SUCCESS"
	StatusFailed  SyncStatus = "FAILED"
)

type History struct {
	gorm.Model
	PairName  string     `gorm:"not null"`
	Action    SyncAction `gorm:"not null"`
	Status    SyncStatus `gorm:"not null"`
	Direction string
	ErrMsg    string
	SyncedAt  time.Time `gorm:"not null"`
}
