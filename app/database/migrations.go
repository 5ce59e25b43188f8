package database

import (
	"database/sql"
	"log"
)

// RunMigrations checks and applies necessary schema updates
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			code VARCHAR(50) UNIQUE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_code VARCHAR(100) UNIQUE NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID NOT NULL REFERENCES students(id),
			class_id UUID NOT NULL REFERENCES classes(id),
			status VARCHAR(10) NOT NULL DEFAULT 'active',
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (student_id, class_id)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			class_id UUID NOT NULL REFERENCES classes(id),
			session_date DATE NOT NULL,
			session_start_time TIMESTAMPTZ NOT NULL,
			session_end_time TIMESTAMPTZ,
			status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
			location TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// One in-progress session per class per day, enforced by the store.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
			ON attendance_sessions (class_id, session_date)
			WHERE status = 'in_progress'`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES attendance_sessions(id) ON DELETE CASCADE,
			student_id UUID NOT NULL REFERENCES students(id),
			status VARCHAR(10) NOT NULL,
			check_in_time TIMESTAMPTZ NOT NULL DEFAULT now(),
			confidence DOUBLE PRECISION,
			is_manual_override BOOLEAN NOT NULL DEFAULT false,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		// The anti-duplicate guarantee: one record per (session, student).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_records_session_student
			ON attendance_records (session_id, student_id)`,
		`CREATE TABLE IF NOT EXISTS scheduled_jobs (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			class_id UUID NOT NULL,
			kind VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			run_at TIMESTAMPTZ NOT NULL,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_session
			ON scheduled_jobs (session_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Failed to run migration: %v", err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
