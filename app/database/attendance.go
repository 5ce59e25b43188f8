package database

import (
	"database/sql"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// GetPresentStudentIDs returns the IDs of students already holding a present
// record in the session (the anti-loop set consulted before recognition).
func GetPresentStudentIDs(db *sql.DB, sessionID string) (map[string]bool, error) {
	query := `SELECT student_id FROM attendance_records
			  WHERE session_id = $1 AND status = 'present'`

	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var studentID string
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		present[studentID] = true
	}
	return present, rows.Err()
}

// InsertAttendanceRecordTx inserts a recognition-produced record inside tx.
// ON CONFLICT DO NOTHING absorbs the duplicate-insert race against a
// concurrent intake call; the returned flag is false when the row already
// existed.
func InsertAttendanceRecordTx(tx *sql.Tx, record *models.AttendanceRecord) (bool, error) {
	query := `INSERT INTO attendance_records
			  (id, session_id, student_id, status, check_in_time, confidence, is_manual_override, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			  ON CONFLICT (session_id, student_id) DO NOTHING`
	res, err := tx.Exec(query, record.ID, record.SessionID, record.StudentID,
		record.Status, record.CheckInTime, record.Confidence, record.IsManualOverride)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpsertManualAttendance creates or overwrites a record for manual marking.
// Unlike the recognition path, a manual mark always may update an existing
// record's status and notes.
func UpsertManualAttendance(db *sql.DB, record *models.AttendanceRecord) error {
	query := `INSERT INTO attendance_records
			  (id, session_id, student_id, status, check_in_time, confidence, is_manual_override, notes, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NULL, true, $6, now(), now())
			  ON CONFLICT (session_id, student_id) DO UPDATE
			  SET status = EXCLUDED.status,
			      notes = EXCLUDED.notes,
			      is_manual_override = true,
			      updated_at = now()`
	_, err := db.Exec(query, record.ID, record.SessionID, record.StudentID,
		record.Status, record.CheckInTime, record.Notes)
	return err
}

// GetRecordBySessionAndStudent returns the record or sql.ErrNoRows.
func GetRecordBySessionAndStudent(db *sql.DB, sessionID, studentID string) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	query := `SELECT id, session_id, student_id, status, check_in_time, confidence, is_manual_override, notes, created_at, updated_at
			  FROM attendance_records
			  WHERE session_id = $1 AND student_id = $2`

	err := db.QueryRow(query, sessionID, studentID).Scan(
		&record.ID, &record.SessionID, &record.StudentID, &record.Status,
		&record.CheckInTime, &record.Confidence, &record.IsManualOverride,
		&record.Notes, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func GetRecordsBySession(db *sql.DB, sessionID string) ([]*models.AttendanceRecord, error) {
	query := `SELECT r.id, r.session_id, r.student_id, r.status, r.check_in_time, r.confidence, r.is_manual_override, r.notes, r.created_at, r.updated_at,
			         s.id, s.student_code, s.first_name, s.last_name, s.is_active, s.created_at, s.updated_at
			  FROM attendance_records r
			  JOIN students s ON s.id = r.student_id
			  WHERE r.session_id = $1
			  ORDER BY r.check_in_time`

	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.AttendanceRecord
	for rows.Next() {
		record := &models.AttendanceRecord{Student: &models.Student{}}
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.StudentID, &record.Status,
			&record.CheckInTime, &record.Confidence, &record.IsManualOverride,
			&record.Notes, &record.CreatedAt, &record.UpdatedAt,
			&record.Student.ID, &record.Student.StudentCode, &record.Student.FirstName,
			&record.Student.LastName, &record.Student.IsActive,
			&record.Student.CreatedAt, &record.Student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if records == nil {
		records = []*models.AttendanceRecord{}
	}
	return records, rows.Err()
}
