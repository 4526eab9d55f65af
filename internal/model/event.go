package model

import "time"

type EventType string

const (
	EventWrite  EventType = "WRITE"
	EventRemove EventType = "REMOVE"
)

// FileEvent is a raw, per-path notification from the watch layer, before it
// is debounced and mapped onto a pair.
type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}
