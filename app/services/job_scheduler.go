package services

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// pastTargetGrace is how far in the future a job lands when its nominal
// target time has already passed. The job is never run synchronously in the
// caller's request path and never silently dropped.
const pastTargetGrace = 5 * time.Second

// SessionJobScheduler times the cache preload/cleanup jobs around a
// session's window and tracks which jobs belong to which session. Tracking
// is durable (scheduled_jobs table); the in-memory map is a cache over it so
// the common cancel path avoids a query.
type SessionJobScheduler struct {
	db        *sql.DB
	runner    *JobRunner
	cacheSync *CacheSyncClient

	leadMinutes int
	lagMinutes  int

	mu            sync.Mutex
	sessionToJobs map[string][]string
}

func NewSessionJobScheduler(db *sql.DB, runner *JobRunner, cacheSync *CacheSyncClient, leadMinutes, lagMinutes int) *SessionJobScheduler {
	return &SessionJobScheduler{
		db:            db,
		runner:        runner,
		cacheSync:     cacheSync,
		leadMinutes:   leadMinutes,
		lagMinutes:    lagMinutes,
		sessionToJobs: make(map[string][]string),
	}
}

// jobRunAt computes when a job actually fires: the nominal target, unless
// that is not in the future, in which case a few seconds from now.
func jobRunAt(target, now time.Time) time.Time {
	if target.After(now) {
		return target
	}
	return now.Add(pastTargetGrace)
}

// SchedulePreload schedules a cache preload for leadMinutes before the
// session start. Returns the job ID.
func (s *SessionJobScheduler) SchedulePreload(sessionID, classID string, startTime time.Time) (string, error) {
	target := startTime.Add(-time.Duration(s.leadMinutes) * time.Minute)
	return s.schedule(sessionID, classID, models.JobCachePreload, target)
}

// ScheduleCleanup schedules a cache eviction for lagMinutes after the
// session end.
func (s *SessionJobScheduler) ScheduleCleanup(sessionID, classID string, endTime time.Time) (string, error) {
	target := endTime.Add(time.Duration(s.lagMinutes) * time.Minute)
	return s.schedule(sessionID, classID, models.JobCacheCleanup, target)
}

func (s *SessionJobScheduler) schedule(sessionID, classID string, kind models.JobKind, target time.Time) (string, error) {
	runAt := jobRunAt(target, time.Now())
	job := &models.ScheduledJob{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ClassID:   classID,
		Kind:      kind,
		Status:    models.JobScheduled,
		RunAt:     runAt,
	}

	if err := database.InsertScheduledJob(s.db, job); err != nil {
		return "", errors.Wrapf(ErrStorage, "persist %s job for session %s: %v", kind, sessionID, err)
	}

	s.mu.Lock()
	s.sessionToJobs[sessionID] = append(s.sessionToJobs[sessionID], job.ID)
	s.mu.Unlock()

	s.arm(job)
	log.Printf("Scheduled %s job %s for session %s at %s", kind, job.ID, sessionID, runAt.Format(time.RFC3339))
	return job.ID, nil
}

// arm registers the job body with the runner. The body performs the cache
// operation once; retries happen inside the client's retry policy, never at
// this layer.
func (s *SessionJobScheduler) arm(job *models.ScheduledJob) {
	jobID, sessionID, classID, kind := job.ID, job.SessionID, job.ClassID, job.Kind

	s.runner.Schedule(jobID, job.RunAt, func() error {
		// The cleanup job is the last one in a session's lifecycle; once it
		// has run there is nothing left to cancel for the session.
		if kind == models.JobCacheCleanup {
			defer s.forgetSession(sessionID)
		}

		if err := database.UpdateJobStatus(s.db, jobID, models.JobRunning, nil); err != nil {
			log.Printf("Failed to mark job %s running: %v", jobID, err)
		}

		err := s.execute(classID, kind)
		if err != nil {
			msg := err.Error()
			if dbErr := database.UpdateJobStatus(s.db, jobID, models.JobFailed, &msg); dbErr != nil {
				log.Printf("Failed to mark job %s failed: %v", jobID, dbErr)
			}
			return err
		}

		if dbErr := database.UpdateJobStatus(s.db, jobID, models.JobSucceeded, nil); dbErr != nil {
			log.Printf("Failed to mark job %s succeeded: %v", jobID, dbErr)
		}
		return nil
	})
}

func (s *SessionJobScheduler) execute(classID string, kind models.JobKind) error {
	ctx := context.Background()
	switch kind {
	case models.JobCachePreload:
		_, err := s.cacheSync.Preload(ctx, classID)
		return err
	case models.JobCacheCleanup:
		return s.cacheSync.Evict(ctx, classID)
	default:
		return errors.Newf("unknown job kind %q", kind)
	}
}

func (s *SessionJobScheduler) forgetSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessionToJobs, sessionID)
	s.mu.Unlock()
}

// CancelJob cancels one job. Returns false when the job does not exist or
// has already fired.
func (s *SessionJobScheduler) CancelJob(jobID string) bool {
	cancelled := s.runner.Delete(jobID)
	if cancelled {
		if err := database.UpdateJobStatus(s.db, jobID, models.JobCancelled, nil); err != nil {
			log.Printf("Failed to mark job %s cancelled: %v", jobID, err)
		}
	}
	return cancelled
}

// CancelAllJobsForSession cancels every tracked job for the session and
// returns how many were actually stopped before firing.
func (s *SessionJobScheduler) CancelAllJobsForSession(sessionID string) int {
	s.mu.Lock()
	jobIDs := s.sessionToJobs[sessionID]
	delete(s.sessionToJobs, sessionID)
	s.mu.Unlock()

	// The map only covers this process's lifetime; pick up rows scheduled
	// before a restart as well.
	if jobs, err := database.GetJobsBySession(s.db, sessionID); err == nil {
		known := make(map[string]bool, len(jobIDs))
		for _, id := range jobIDs {
			known[id] = true
		}
		for _, job := range jobs {
			if job.Status == models.JobScheduled && !known[job.ID] {
				jobIDs = append(jobIDs, job.ID)
			}
		}
	} else {
		log.Printf("Failed to load jobs for session %s: %v", sessionID, err)
	}

	cancelled := 0
	for _, jobID := range jobIDs {
		if s.CancelJob(jobID) {
			cancelled++
		}
	}
	return cancelled
}

// GetJobStatus returns the job's state, preferring the live runner state and
// falling back to the durable row. Nil means the job is unknown.
func (s *SessionJobScheduler) GetJobStatus(jobID string) *string {
	if status := s.runner.Status(jobID); status != nil {
		return status
	}
	job, err := database.GetScheduledJob(s.db, jobID)
	if err != nil {
		return nil
	}
	status := string(job.Status)
	return &status
}

// RestorePending re-arms jobs left in scheduled state by a previous process.
// Jobs whose time has passed get the usual short grace rather than firing
// in-line.
func (s *SessionJobScheduler) RestorePending() error {
	jobs, err := database.GetPendingJobs(s.db)
	if err != nil {
		return errors.Wrapf(ErrStorage, "load pending jobs: %v", err)
	}

	now := time.Now()
	for _, job := range jobs {
		job.RunAt = jobRunAt(job.RunAt, now)

		s.mu.Lock()
		s.sessionToJobs[job.SessionID] = append(s.sessionToJobs[job.SessionID], job.ID)
		s.mu.Unlock()

		s.arm(job)
	}
	if len(jobs) > 0 {
		log.Printf("Restored %d pending scheduled jobs", len(jobs))
	}
	return nil
}
