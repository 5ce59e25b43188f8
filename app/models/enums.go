package models

// SessionStatus defines the lifecycle states of an attendance session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// AttendanceStatus defines the possible status values for an attendance record.
type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
	Excused AttendanceStatus = "excused"
)

// EnrollmentStatus defines whether a student's enrollment in a class is active.
type EnrollmentStatus string

const (
	EnrollmentActive   EnrollmentStatus = "active"
	EnrollmentInactive EnrollmentStatus = "inactive"
)

// JobKind defines the kinds of scheduled cache-sync jobs.
type JobKind string

const (
	JobCachePreload JobKind = "cache_preload"
	JobCacheCleanup JobKind = "cache_cleanup"
)

// JobStatus defines the states of a scheduled job.
type JobStatus string

const (
	JobScheduled JobStatus = "scheduled"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)
