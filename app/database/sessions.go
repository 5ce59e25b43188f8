package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func CreateAttendanceSession(db *sql.DB, session *models.AttendanceSession) error {
	query := `INSERT INTO attendance_sessions (id, class_id, session_date, session_start_time, status, location, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
	_, err := db.Exec(query, session.ID, session.ClassID, session.SessionDate,
		session.SessionStartTime, session.Status, session.Location)
	return err
}

func GetSessionByID(db *sql.DB, sessionID string) (*models.AttendanceSession, error) {
	session := &models.AttendanceSession{}
	query := `SELECT id, class_id, session_date, session_start_time, session_end_time, status, location, created_at, updated_at
			  FROM attendance_sessions WHERE id = $1`

	err := db.QueryRow(query, sessionID).Scan(
		&session.ID, &session.ClassID, &session.SessionDate, &session.SessionStartTime,
		&session.SessionEndTime, &session.Status, &session.Location,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetActiveSessionByClassAndDate returns the in-progress session for the
// class on the given date, or sql.ErrNoRows.
func GetActiveSessionByClassAndDate(db *sql.DB, classID string, date time.Time) (*models.AttendanceSession, error) {
	session := &models.AttendanceSession{}
	query := `SELECT id, class_id, session_date, session_start_time, session_end_time, status, location, created_at, updated_at
			  FROM attendance_sessions
			  WHERE class_id = $1 AND session_date = $2 AND status = 'in_progress'`

	err := db.QueryRow(query, classID, date).Scan(
		&session.ID, &session.ClassID, &session.SessionDate, &session.SessionStartTime,
		&session.SessionEndTime, &session.Status, &session.Location,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteSession marks an in-progress session completed. Returns the number
// of rows updated; zero means the session was not in progress.
func CompleteSession(db *sql.DB, sessionID string, endTime time.Time) (int64, error) {
	query := `UPDATE attendance_sessions
			  SET status = 'completed', session_end_time = $2, updated_at = now()
			  WHERE id = $1 AND status = 'in_progress'`
	res, err := db.Exec(query, sessionID, endTime)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteSessionCascade removes the session, its attendance records and its
// scheduled-job rows in one transaction. Records go first so no record can
// outlive its session.
func DeleteSessionCascade(db *sql.DB, sessionID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM attendance_records WHERE session_id = $1`, sessionID); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM scheduled_jobs WHERE session_id = $1`, sessionID); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM attendance_sessions WHERE id = $1`, sessionID); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func GetSessionsByClass(db *sql.DB, classID string) ([]*models.AttendanceSession, error) {
	query := `SELECT id, class_id, session_date, session_start_time, session_end_time, status, location, created_at, updated_at
			  FROM attendance_sessions
			  WHERE class_id = $1
			  ORDER BY session_start_time DESC`

	rows, err := db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.AttendanceSession
	for rows.Next() {
		session := &models.AttendanceSession{}
		if err := rows.Scan(
			&session.ID, &session.ClassID, &session.SessionDate, &session.SessionStartTime,
			&session.SessionEndTime, &session.Status, &session.Location,
			&session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if sessions == nil {
		sessions = []*models.AttendanceSession{}
	}
	return sessions, rows.Err()
}
