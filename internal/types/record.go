package types

import "time"

// SessionRecord is the immutable archive entry written when a session
// reaches a terminal phase. It preserves the transcript and the full status
// feed for audit.
type SessionRecord struct {
	SessionID   string          `json:"session_id"`
	Kind        EntityKind      `json:"kind"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Messages    []Message       `json:"messages,omitempty"`
	Feed        []ProgressEvent `json:"feed,omitempty"`
	Entities    []CreatedEntity `json:"entities,omitempty"`
}
