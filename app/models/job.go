package models

import "time"

// ScheduledJob is the durable record of a deferred cache-sync job tied to a
// session. The in-process scheduler keeps a map over these rows so that
// cancellation survives restarts.
type ScheduledJob struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ClassID   string    `json:"class_id"`
	Kind      JobKind   `json:"kind"`
	Status    JobStatus `json:"status"`
	RunAt     time.Time `json:"run_at"`
	LastError *string   `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
