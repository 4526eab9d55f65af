package model

import "time"

// ConflictRecord captures both sides of a pair as they were when overlapping
// edits were detected. Present means the conflict is still active; it is
// removed once the markers have been edited out and the pair reconverges.
type ConflictRecord struct {
	Pair          string    `json:"pair"`
	SourcePath    string    `json:"source"`
	TargetPath    string    `json:"target"`
	DetectedAt    time.Time `json:"detected_at"`
	SourceContent string    `json:"source_content"`
	TargetContent string    `json:"target_content"`
}
