package models

import "time"

// Enrollment relates a student to a class. Only active enrollments make a
// student eligible for attendance marking in that class.
type Enrollment struct {
	ID         string           `json:"id" validate:"required,uuid"`
	StudentID  string           `json:"student_id" validate:"required,uuid"`
	ClassID    string           `json:"class_id" validate:"required,uuid"`
	Status     EnrollmentStatus `json:"status" validate:"required,oneof=active inactive"`
	EnrolledAt time.Time        `json:"enrolled_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
