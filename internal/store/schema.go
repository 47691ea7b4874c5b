package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements bootstrap the relational layout. Subjects and
// students are maintained by the academic CRUD layer; this service only
// reads them for ownership checks, enrollment lookups, and report joins.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS campus_locations (
		location_id      TEXT PRIMARY KEY,
		campus_name      TEXT NOT NULL UNIQUE,
		center_latitude  NUMERIC(9,6) NOT NULL,
		center_longitude NUMERIC(9,6) NOT NULL,
		radius_meters    INTEGER NOT NULL CHECK (radius_meters > 0),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		subject_id   TEXT PRIMARY KEY,
		subject_name TEXT NOT NULL,
		subject_code TEXT NOT NULL,
		teacher_id   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_id     TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		email          TEXT NOT NULL,
		enrollment     TEXT,
		guardian_email TEXT,
		batch_id       TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS student_subjects (
		student_id TEXT NOT NULL REFERENCES students(student_id),
		subject_id TEXT NOT NULL REFERENCES subjects(subject_id),
		PRIMARY KEY (student_id, subject_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id  TEXT PRIMARY KEY,
		teacher_id  TEXT NOT NULL,
		subject_id  TEXT NOT NULL REFERENCES subjects(subject_id),
		program_id  TEXT NOT NULL,
		batch_id    TEXT NOT NULL,
		location_id TEXT NOT NULL REFERENCES campus_locations(location_id),
		start_time  TIMESTAMPTZ NOT NULL,
		end_time    TIMESTAMPTZ,
		status      TEXT NOT NULL DEFAULT 'Open' CHECK (status IN ('Open','Closed')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		attendance_id   TEXT PRIMARY KEY,
		session_id      TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		student_id      TEXT NOT NULL,
		attendance_date TIMESTAMPTZ NOT NULL,
		status          TEXT NOT NULL CHECK (status IN ('Present','Absent','Pending')),
		latitude        NUMERIC(9,6),
		longitude       NUMERIC(9,6),
		teacher_comment TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// The duplicate check-in guard. Concurrent inserts for the same
	// (session, student) pair must fail here, not in application code.
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_session_student_uniq
		ON attendance (session_id, student_id)`,
	`CREATE INDEX IF NOT EXISTS attendance_student_idx ON attendance (student_id)`,
	`CREATE INDEX IF NOT EXISTS sessions_teacher_idx ON sessions (teacher_id)`,
	`CREATE INDEX IF NOT EXISTS sessions_subject_idx ON sessions (subject_id)`,
}

// EnsureSchema creates tables and indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}
