package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `attendance_id, session_id, student_id, attendance_date, status, latitude, longitude, teacher_comment, created_at, updated_at`

func scanRecord(row interface{ Scan(dest ...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.AttendanceDate, &rec.Status,
		&rec.Latitude, &rec.Longitude, &rec.TeacherComment, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// Insert writes a new record. The composite unique index on
// (session_id, student_id) rejects duplicates; callers classify that
// error via store.IsUniqueViolation.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AttendanceDate.IsZero() {
		rec.AttendanceDate = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (attendance_id, session_id, student_id, attendance_date, status, latitude, longitude, teacher_comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, rec.ID, rec.SessionID, rec.StudentID, rec.AttendanceDate, rec.Status, rec.Latitude, rec.Longitude, rec.TeacherComment)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns a record by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance WHERE attendance_id = $1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Find returns the record for a (session, student) pair, or nil.
func (r *Repository) Find(ctx context.Context, sessionID, studentID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance WHERE session_id = $1 AND student_id = $2
	`, sessionID, studentID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus overwrites status and, when provided, the teacher comment.
// Coordinates and the attendance date never change after creation.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, comment *string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance
		SET status = $2, teacher_comment = COALESCE($3, teacher_comment), updated_at = $4
		WHERE attendance_id = $1
		RETURNING `+recordColumns+`
	`, id, status, comment, time.Now().UTC())
	return scanRecord(row)
}

// PromotePending bulk-transitions every Pending record in a session to
// Present in one atomic statement, returning the number changed.
func (r *Repository) PromotePending(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET status = 'Present', updated_at = $2
		WHERE session_id = $1 AND status = 'Pending'
	`, sessionID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE attendance_id = $1`, id)
	return err
}

// ListForSession returns a session's records with student identity,
// newest first. Students unknown to the roster still appear, with null
// identity fields.
func (r *Repository) ListForSession(ctx context.Context, sessionID string) ([]SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.attendance_id, a.student_id, s.name, s.email, s.enrollment,
			a.status, a.latitude, a.longitude, a.teacher_comment, a.created_at
		FROM attendance a
		LEFT JOIN students s ON s.student_id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.created_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.AttendanceID, &rec.Student.ID, &rec.Student.Name, &rec.Student.Email,
			&rec.Student.Enrollment, &rec.Status, &rec.Latitude, &rec.Longitude, &rec.TeacherComment, &rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// List returns records matching the filter, newest attendance date first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance`
	args := []any{}
	clauses := []string{}
	add := func(clause string, val any) {
		clauses = append(clauses, fmt.Sprintf(clause, len(args)+1))
		args = append(args, val)
	}
	if f.SessionID != "" {
		add("session_id = $%d", f.SessionID)
	}
	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("attendance_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("attendance_date <= $%d", *f.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY attendance_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// HistoryForStudent returns the student's records joined with subject
// context, newest first.
func (r *Repository) HistoryForStudent(ctx context.Context, studentID string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.attendance_id, a.attendance_date, a.status, sub.subject_name, sess.teacher_id, a.session_id
		FROM attendance a
		JOIN sessions sess ON sess.session_id = a.session_id
		JOIN subjects sub ON sub.subject_id = sess.subject_id
		WHERE a.student_id = $1
		ORDER BY a.attendance_date DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.AttendanceID, &e.Date, &e.Status, &e.SubjectName, &e.TeacherID, &e.SessionID); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
