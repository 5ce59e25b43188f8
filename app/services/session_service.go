package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// SessionService owns the attendance-session state machine:
// in_progress -> completed (one way), and deletion from either state.
type SessionService struct {
	db        *sql.DB
	scheduler *SessionJobScheduler
	cacheSync *CacheSyncClient
}

func NewSessionService(db *sql.DB, scheduler *SessionJobScheduler, cacheSync *CacheSyncClient) *SessionService {
	return &SessionService{db: db, scheduler: scheduler, cacheSync: cacheSync}
}

// CreateSession opens a session for the class on the given date and
// schedules the cache preload job. The class must exist and be active, and
// no in-progress session may exist for the (class, date) pair. The returned
// roster holds the class's active enrolled students, all defaulted absent.
//
// Scheduling failures do not roll the session back: the session is persisted
// and the error is surfaced to the caller.
func (s *SessionService) CreateSession(ctx context.Context, classID string, date time.Time, location *string) (*models.SessionWithRoster, error) {
	class, err := database.GetClassByID(s.db, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "class %s", classID)
		}
		return nil, errors.Wrapf(ErrStorage, "load class %s: %v", classID, err)
	}
	if !class.IsActive {
		return nil, errors.Wrapf(ErrNotFound, "class %s is inactive", classID)
	}

	day := date.Truncate(24 * time.Hour)
	if _, err := database.GetActiveSessionByClassAndDate(s.db, classID, day); err == nil {
		return nil, errors.Wrapf(ErrConflict, "an in-progress session already exists for class %s on %s",
			classID, day.Format("2006-01-02"))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrStorage, "check active session: %v", err)
	}

	now := time.Now()
	session := &models.AttendanceSession{
		ID:               uuid.NewString(),
		ClassID:          classID,
		SessionDate:      day,
		SessionStartTime: now,
		Status:           models.SessionInProgress,
		Location:         location,
	}

	if err := database.CreateAttendanceSession(s.db, session); err != nil {
		// A concurrent create can beat the pre-check; the partial unique
		// index is what actually holds the invariant.
		if database.IsUniqueViolation(err) {
			return nil, errors.Wrapf(ErrConflict, "an in-progress session already exists for class %s on %s",
				classID, day.Format("2006-01-02"))
		}
		return nil, errors.Wrapf(ErrStorage, "create session: %v", err)
	}

	students, err := database.GetActiveStudentsByClass(s.db, classID)
	if err != nil {
		return nil, errors.Wrapf(ErrStorage, "load roster for class %s: %v", classID, err)
	}
	roster := make([]*models.RosterEntry, 0, len(students))
	for _, student := range students {
		roster = append(roster, &models.RosterEntry{Student: student, Status: models.Absent})
	}

	result := &models.SessionWithRoster{Session: session, Roster: roster}

	if _, err := s.scheduler.SchedulePreload(session.ID, classID, session.SessionStartTime); err != nil {
		log.Printf("Failed to schedule preload job for session %s: %v", session.ID, err)
		return result, err
	}

	log.Printf("Created session %s for class %s (%d students on roster)", session.ID, classID, len(roster))
	return result, nil
}

// CompleteSession closes an in-progress session: sets the end time,
// schedules the cache cleanup job and cancels the preload job if it has not
// fired yet (a session completed before its lead time has no cache to warm).
func (s *SessionService) CompleteSession(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	session, err := database.GetSessionByID(s.db, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return nil, errors.Wrapf(ErrStorage, "load session %s: %v", sessionID, err)
	}
	if session.Status != models.SessionInProgress {
		return nil, errors.Wrapf(ErrInvalidState, "session %s is %s, not in progress", sessionID, session.Status)
	}

	endTime := time.Now()
	updated, err := database.CompleteSession(s.db, sessionID, endTime)
	if err != nil {
		return nil, errors.Wrapf(ErrStorage, "complete session %s: %v", sessionID, err)
	}
	if updated == 0 {
		// Lost a race with another completion.
		return nil, errors.Wrapf(ErrInvalidState, "session %s is not in progress", sessionID)
	}

	session.Status = models.SessionCompleted
	session.SessionEndTime = &endTime

	if cancelled := s.cancelUnfiredPreload(sessionID); cancelled > 0 {
		log.Printf("Cancelled %d unfired preload job(s) for completed session %s", cancelled, sessionID)
	}

	if _, err := s.scheduler.ScheduleCleanup(sessionID, session.ClassID, endTime); err != nil {
		log.Printf("Failed to schedule cleanup job for session %s: %v", sessionID, err)
		return session, err
	}

	log.Printf("Completed session %s", sessionID)
	return session, nil
}

func (s *SessionService) cancelUnfiredPreload(sessionID string) int {
	jobs, err := database.GetJobsBySession(s.db, sessionID)
	if err != nil {
		log.Printf("Failed to load jobs for session %s: %v", sessionID, err)
		return 0
	}
	cancelled := 0
	for _, job := range jobs {
		if job.Kind == models.JobCachePreload && job.Status == models.JobScheduled {
			if s.scheduler.CancelJob(job.ID) {
				cancelled++
			}
		}
	}
	return cancelled
}

// DeleteSession removes the session with its records and jobs. External
// cleanup (cache eviction) is best effort; storage deletion is not.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := database.GetSessionByID(s.db, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return errors.Wrapf(ErrStorage, "load session %s: %v", sessionID, err)
	}

	if cancelled := s.scheduler.CancelAllJobsForSession(sessionID); cancelled > 0 {
		log.Printf("Cancelled %d job(s) for deleted session %s", cancelled, sessionID)
	}

	if err := s.cacheSync.Evict(ctx, session.ClassID); err != nil {
		log.Printf("Best-effort cache evict failed for class %s: %v", session.ClassID, err)
	}

	if err := database.DeleteSessionCascade(s.db, sessionID); err != nil {
		return errors.Wrapf(ErrStorage, "delete session %s: %v", sessionID, err)
	}

	log.Printf("Deleted session %s", sessionID)
	return nil
}

// GetSession returns the session with its attendance records.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.AttendanceSession, []*models.AttendanceRecord, error) {
	session, err := database.GetSessionByID(s.db, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, errors.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return nil, nil, errors.Wrapf(ErrStorage, "load session %s: %v", sessionID, err)
	}
	records, err := database.GetRecordsBySession(s.db, sessionID)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrStorage, "load records for session %s: %v", sessionID, err)
	}
	return session, records, nil
}
