package types

import "time"

type ProgressKind string

const (
	ProgressInfo     ProgressKind = "info"
	ProgressProgress ProgressKind = "progress"
	ProgressSuccess  ProgressKind = "success"
	ProgressError    ProgressKind = "error"
)

// ProgressEvent is an append-only status feed entry. Entries are never
// mutated or removed; the full history of a creation run is kept for audit.
type ProgressEvent struct {
	SessionID string       `json:"session_id"`
	Kind      ProgressKind `json:"kind"`
	Message   string       `json:"message"`
	Current   int          `json:"current,omitempty"`
	Total     int          `json:"total,omitempty"`
	At        time.Time    `json:"at"`
}
