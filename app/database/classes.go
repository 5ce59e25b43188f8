package database

import (
	"database/sql"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

func GetClassByID(db *sql.DB, classID string) (*models.Class, error) {
	class := &models.Class{}
	query := `SELECT id, name, code, is_active, created_at, updated_at
			  FROM classes WHERE id = $1 AND deleted_at IS NULL`

	err := db.QueryRow(query, classID).Scan(
		&class.ID, &class.Name, &class.Code, &class.IsActive,
		&class.CreatedAt, &class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return class, nil
}

func GetAllClasses(db *sql.DB) ([]*models.Class, error) {
	query := `SELECT id, name, code, is_active, created_at, updated_at
			  FROM classes WHERE deleted_at IS NULL
			  ORDER BY name`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		class := &models.Class{}
		if err := rows.Scan(
			&class.ID, &class.Name, &class.Code, &class.IsActive,
			&class.CreatedAt, &class.UpdatedAt,
		); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}

	if classes == nil {
		classes = []*models.Class{}
	}
	return classes, rows.Err()
}

func CreateClass(db *sql.DB, class *models.Class) error {
	query := `INSERT INTO classes (id, name, code, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, now(), now())`
	_, err := db.Exec(query, class.ID, class.Name, class.Code, class.IsActive)
	return err
}

// DeactivateClass soft-deletes the class. Existing sessions and records are
// kept; new sessions cannot be created for an inactive class.
func DeactivateClass(db *sql.DB, classID string) (int64, error) {
	query := `UPDATE classes SET is_active = false, deleted_at = now(), updated_at = now()
			  WHERE id = $1 AND deleted_at IS NULL`
	result, err := db.Exec(query, classID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
