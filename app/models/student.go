package models

import "time"

// Student represents a student known to the face-recognition service by
// their student code (the identifier returned in recognition results).
type Student struct {
	ID          string     `json:"id" validate:"required,uuid"`
	StudentCode string     `json:"student_code" validate:"required"`
	FirstName   string     `json:"first_name" validate:"required"`
	LastName    string     `json:"last_name" validate:"required"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// FullName returns the student's display name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
