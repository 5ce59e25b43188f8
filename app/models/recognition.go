package models

// Wire schemas for the external face-recognition service. Tags carry the
// service's camelCase field names; encoding/json matches them
// case-insensitively on decode.

// RecognizedFace is one candidate match returned by the recognition service.
type RecognizedFace struct {
	StudentID  string  `json:"studentId"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// RecognizeResponse is the body of POST /api/face/recognize.
type RecognizeResponse struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message"`
	Error              string           `json:"error,omitempty"`
	TotalFacesDetected int              `json:"totalFacesDetected"`
	RecognizedStudents []RecognizedFace `json:"recognizedStudents"`
}

// RegisterResponse is the body of POST /api/face/register.
type RegisterResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	Error         string  `json:"error,omitempty"`
	StudentID     string  `json:"studentId"`
	ImagePath     string  `json:"imagePath,omitempty"`
	FacesDetected int     `json:"facesDetected"`
	Confidence    float64 `json:"faceConfidence,omitempty"`
}

// CacheSyncResponse is the body of POST /api/database/sync and /cleanup.
// Requests carry camelCase classId; these two response fields come back
// snake_case.
type CacheSyncResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
	StudentCount int    `json:"student_count"`
	ClassID      string `json:"class_id"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// RecognizedEntry is one student in an intake result, with whether this call
// created their attendance record or they were already marked present.
type RecognizedEntry struct {
	StudentID   string  `json:"student_id"`
	StudentCode string  `json:"student_code"`
	FullName    string  `json:"full_name"`
	Confidence  float64 `json:"confidence"`
	IsNewRecord bool    `json:"is_new_record"`
}

// RecognitionOutcome is the soft-failure-capable result of one intake call.
// Success is true iff at least one enrolled student was recognized, new or
// already marked; Message distinguishes no-face / no-match / saved / dupes.
type RecognitionOutcome struct {
	Success            bool               `json:"success"`
	Message            string             `json:"message"`
	TotalFacesDetected int                `json:"total_faces_detected"`
	RecognizedStudents []*RecognizedEntry `json:"recognized_students"`
}
