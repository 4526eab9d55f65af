package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseSnapshot is the last content both sides of a pair converged to, the
// common ancestor for the next 3-way merge. Written only after a successful
// converge, never while a conflict is active.
type BaseSnapshot struct {
	gorm.Model
	PairName   string    `gorm:"uniqueIndex;not null"`
	Content    []byte    `gorm:"not null"`
	Hash       string    `gorm:"not null"`
	CapturedAt time.Time `gorm:"not null"`
}
