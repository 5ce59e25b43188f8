package database

import (
	"database/sql"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

func GetStudentByID(db *sql.DB, studentID string) (*models.Student, error) {
	student := &models.Student{}
	query := `SELECT id, student_code, first_name, last_name, is_active, created_at, updated_at
			  FROM students WHERE id = $1 AND deleted_at IS NULL`

	err := db.QueryRow(query, studentID).Scan(
		&student.ID, &student.StudentCode, &student.FirstName, &student.LastName,
		&student.IsActive, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// GetStudentByCode looks a student up by the code the recognition service
// reports in its candidate matches.
func GetStudentByCode(db *sql.DB, studentCode string) (*models.Student, error) {
	student := &models.Student{}
	query := `SELECT id, student_code, first_name, last_name, is_active, created_at, updated_at
			  FROM students WHERE student_code = $1 AND deleted_at IS NULL`

	err := db.QueryRow(query, studentCode).Scan(
		&student.ID, &student.StudentCode, &student.FirstName, &student.LastName,
		&student.IsActive, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// GetActiveStudentsByClass returns the active students actively enrolled in
// the class, ordered by name. This is the session roster.
func GetActiveStudentsByClass(db *sql.DB, classID string) ([]*models.Student, error) {
	query := `SELECT s.id, s.student_code, s.first_name, s.last_name, s.is_active, s.created_at, s.updated_at
			  FROM students s
			  JOIN enrollments e ON e.student_id = s.id
			  WHERE e.class_id = $1 AND e.status = 'active' AND s.is_active = true AND s.deleted_at IS NULL
			  ORDER BY s.first_name, s.last_name`

	rows, err := db.Query(query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student := &models.Student{}
		if err := rows.Scan(
			&student.ID, &student.StudentCode, &student.FirstName, &student.LastName,
			&student.IsActive, &student.CreatedAt, &student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if students == nil {
		students = []*models.Student{}
	}
	return students, rows.Err()
}

// HasActiveEnrollment reports whether the student is actively enrolled in
// the class.
func HasActiveEnrollment(db *sql.DB, studentID, classID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM enrollments
			      WHERE student_id = $1 AND class_id = $2 AND status = 'active'
			  )`
	if err := db.QueryRow(query, studentID, classID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func CreateStudent(db *sql.DB, student *models.Student) error {
	query := `INSERT INTO students (id, student_code, first_name, last_name, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, now(), now())`
	_, err := db.Exec(query, student.ID, student.StudentCode,
		student.FirstName, student.LastName, student.IsActive)
	return err
}

// CreateEnrollment activates the student's enrollment in the class,
// reactivating a previously deactivated one if present.
func CreateEnrollment(db *sql.DB, enrollment *models.Enrollment) error {
	query := `INSERT INTO enrollments (id, student_id, class_id, status, enrolled_at, updated_at)
			  VALUES ($1, $2, $3, $4, now(), now())
			  ON CONFLICT (student_id, class_id) DO UPDATE
			  SET status = EXCLUDED.status, updated_at = now()`
	_, err := db.Exec(query, enrollment.ID, enrollment.StudentID,
		enrollment.ClassID, enrollment.Status)
	return err
}
