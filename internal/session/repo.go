package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `session_id, teacher_id, subject_id, program_id, batch_id, location_id, start_time, end_time, status, created_at, updated_at`

func scanSession(row interface{ Scan(dest ...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.TeacherID, &s.SubjectID, &s.ProgramID, &s.BatchID, &s.LocationID,
		&s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Insert writes a new session.
func (r *Repository) Insert(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusOpen
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (session_id, teacher_id, subject_id, program_id, batch_id, location_id, start_time, end_time, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, s.ID, s.TeacherID, s.SubjectID, s.ProgramID, s.BatchID, s.LocationID, s.StartTime, s.EndTime, s.Status)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get returns a session by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1
	`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Update overwrites the mutable fields of a session.
func (r *Repository) Update(ctx context.Context, s Session) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE sessions
		SET subject_id = $2, program_id = $3, batch_id = $4, location_id = $5,
			start_time = $6, end_time = $7, status = $8, updated_at = $9
		WHERE session_id = $1
		RETURNING `+sessionColumns+`
	`, s.ID, s.SubjectID, s.ProgramID, s.BatchID, s.LocationID, s.StartTime, s.EndTime, s.Status, time.Now().UTC())
	return scanSession(row)
}

// Delete removes a session; attendance rows cascade at the store layer.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, id)
	return err
}

// Filter narrows admin session listings.
type Filter struct {
	SubjectID string
	TeacherID string
	BatchID   string
	Status    string
	StartFrom *time.Time
	StartTo   *time.Time
}

// List returns sessions matching the filter, newest start first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := []any{}
	clauses := []string{}
	add := func(clause string, val any) {
		clauses = append(clauses, fmt.Sprintf(clause, len(args)+1))
		args = append(args, val)
	}
	if f.SubjectID != "" {
		add("subject_id = $%d", f.SubjectID)
	}
	if f.TeacherID != "" {
		add("teacher_id = $%d", f.TeacherID)
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.StartFrom != nil {
		add("start_time >= $%d", *f.StartFrom)
	}
	if f.StartTo != nil {
		add("start_time <= $%d", *f.StartTo)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// ListActiveForStudent returns open, not-yet-started-in-the-past sessions
// for the subjects the student is enrolled in, soonest first.
func (r *Repository) ListActiveForStudent(ctx context.Context, studentID string, now time.Time) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE status = 'Open'
		  AND start_time >= $2
		  AND subject_id IN (SELECT subject_id FROM student_subjects WHERE student_id = $1)
		ORDER BY start_time ASC
	`, studentID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// GetSubject reads one subject from the academic catalog, or nil.
func (r *Repository) GetSubject(ctx context.Context, id string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT subject_id, subject_name, subject_code, teacher_id FROM subjects WHERE subject_id = $1
	`, id)
	var sub Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
