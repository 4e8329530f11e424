package models

import "time"

// Session audit event types.
const (
	EventInitialize  = "INITIALIZE"
	EventPermissions = "PERMISSIONS"
	EventRefresh     = "REFRESH"
	EventError       = "ERROR"
)

// SessionEvent is a single audit log entry about a session transition.
// It never carries health readings.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // INITIALIZE | PERMISSIONS | REFRESH | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
