package models

import "time"

// AttendanceRecord represents one student's attendance within a session.
// At most one record exists per (session, student); the storage layer
// enforces this with a unique index.
type AttendanceRecord struct {
	ID               string           `json:"id" validate:"required,uuid"`
	SessionID        string           `json:"session_id" validate:"required,uuid"`
	StudentID        string           `json:"student_id" validate:"required,uuid"`
	Status           AttendanceStatus `json:"status" validate:"required,oneof=present absent late excused"`
	CheckInTime      time.Time        `json:"check_in_time"`
	Confidence       *float64         `json:"confidence,omitempty"`
	IsManualOverride bool             `json:"is_manual_override"`
	Notes            *string          `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Student          *Student         `json:"student,omitempty"`
}
