package database

import (
	"database/sql"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// Scheduled-job rows are the durable side of session job tracking: the
// in-process scheduler map is only a cache over this table, so cancellation
// still works after a restart.

func InsertScheduledJob(db *sql.DB, job *models.ScheduledJob) error {
	query := `INSERT INTO scheduled_jobs (id, session_id, class_id, kind, status, run_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
	_, err := db.Exec(query, job.ID, job.SessionID, job.ClassID, job.Kind, job.Status, job.RunAt)
	return err
}

func UpdateJobStatus(db *sql.DB, jobID string, status models.JobStatus, lastError *string) error {
	query := `UPDATE scheduled_jobs SET status = $2, last_error = $3, updated_at = now() WHERE id = $1`
	_, err := db.Exec(query, jobID, status, lastError)
	return err
}

func GetScheduledJob(db *sql.DB, jobID string) (*models.ScheduledJob, error) {
	job := &models.ScheduledJob{}
	query := `SELECT id, session_id, class_id, kind, status, run_at, last_error, created_at, updated_at
			  FROM scheduled_jobs WHERE id = $1`

	err := db.QueryRow(query, jobID).Scan(
		&job.ID, &job.SessionID, &job.ClassID, &job.Kind, &job.Status,
		&job.RunAt, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func GetJobsBySession(db *sql.DB, sessionID string) ([]*models.ScheduledJob, error) {
	return queryJobs(db, `SELECT id, session_id, class_id, kind, status, run_at, last_error, created_at, updated_at
			  FROM scheduled_jobs WHERE session_id = $1 ORDER BY run_at`, sessionID)
}

// GetPendingJobs returns jobs still waiting to run, for re-arming the
// in-process scheduler after a restart.
func GetPendingJobs(db *sql.DB) ([]*models.ScheduledJob, error) {
	return queryJobs(db, `SELECT id, session_id, class_id, kind, status, run_at, last_error, created_at, updated_at
			  FROM scheduled_jobs WHERE status = 'scheduled' ORDER BY run_at`)
}

func queryJobs(db *sql.DB, query string, args ...interface{}) ([]*models.ScheduledJob, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.ScheduledJob
	for rows.Next() {
		job := &models.ScheduledJob{}
		if err := rows.Scan(
			&job.ID, &job.SessionID, &job.ClassID, &job.Kind, &job.Status,
			&job.RunAt, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if jobs == nil {
		jobs = []*models.ScheduledJob{}
	}
	return jobs, rows.Err()
}
