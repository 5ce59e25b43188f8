package models

import "time"

// AttendanceSession is a bounded attendance-taking window for one class on
// one date. At most one in_progress session may exist per (class, date).
type AttendanceSession struct {
	ID               string        `json:"id" validate:"required,uuid"`
	ClassID          string        `json:"class_id" validate:"required,uuid"`
	SessionDate      time.Time     `json:"session_date" validate:"required"`
	SessionStartTime time.Time     `json:"session_start_time"`
	SessionEndTime   *time.Time    `json:"session_end_time,omitempty"`
	Status           SessionStatus `json:"status" validate:"required,oneof=in_progress completed"`
	Location         *string       `json:"location,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// RosterEntry is one student on a session's roster, defaulted to absent
// until a recognition hit or manual mark says otherwise.
type RosterEntry struct {
	Student *Student         `json:"student"`
	Status  AttendanceStatus `json:"status"`
}

// SessionWithRoster is the create-session response: the new session plus the
// class's currently enrolled active students.
type SessionWithRoster struct {
	Session *AttendanceSession `json:"session"`
	Roster  []*RosterEntry     `json:"roster"`
}
