package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/session"
)

// Repository runs the read side of reporting against Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StudentSubjectRows returns one row per attendance record of a student,
// tagged with the subject it belongs to.
func (r *Repository) StudentSubjectRows(ctx context.Context, studentID string) ([]StatusRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sub.subject_id, sub.subject_name, a.status
		FROM attendance a
		JOIN sessions sess ON sess.session_id = a.session_id
		JOIN subjects sub ON sub.subject_id = sess.subject_id
		WHERE a.student_id = $1
		ORDER BY a.attendance_date
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []StatusRow
	for rows.Next() {
		var row StatusRow
		if err := rows.Scan(&row.SubjectID, &row.SubjectName, &row.Status); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// GetSubject reads one subject, or nil when absent.
func (r *Repository) GetSubject(ctx context.Context, id string) (*session.Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT subject_id, subject_name, subject_code, teacher_id FROM subjects WHERE subject_id = $1
	`, id)
	var sub session.Subject
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// SubjectRecordRows returns the subject's ledger rows for sessions owned
// by the given teacher, optionally bounded by date.
func (r *Repository) SubjectRecordRows(ctx context.Context, subjectID, teacherID string, from, to *time.Time) ([]RecordRow, error) {
	query := `
		SELECT a.attendance_id, a.session_id, a.student_id, st.name, a.attendance_date, a.status
		FROM attendance a
		JOIN sessions sess ON sess.session_id = a.session_id
		LEFT JOIN students st ON st.student_id = a.student_id
		WHERE sess.subject_id = $1 AND sess.teacher_id = $2`
	args := []any{subjectID, teacherID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND a.attendance_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND a.attendance_date <= $%d", len(args))
	}
	query += " ORDER BY a.attendance_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RecordRow
	for rows.Next() {
		var row RecordRow
		if err := rows.Scan(&row.AttendanceID, &row.SessionID, &row.StudentID, &row.StudentName, &row.AttendanceDate, &row.Status); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// TeacherSubjects returns every subject assigned to a teacher.
func (r *Repository) TeacherSubjects(ctx context.Context, teacherID string) ([]session.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject_id, subject_name, subject_code, teacher_id
		FROM subjects WHERE teacher_id = $1 ORDER BY subject_name
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []session.Subject
	for rows.Next() {
		var sub session.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.TeacherID); err != nil {
			return nil, err
		}
		res = append(res, sub)
	}
	return res, rows.Err()
}

// SessionRows returns flat session rows for every subject a teacher owns.
func (r *Repository) SessionRows(ctx context.Context, teacherID string) ([]SessionRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sess.session_id, sess.subject_id, sess.status
		FROM sessions sess
		JOIN subjects sub ON sub.subject_id = sess.subject_id
		WHERE sub.teacher_id = $1
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SessionRow
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.SessionID, &row.SubjectID, &row.Status); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// AttendanceRows returns flat (session, status) pairs for every session
// belonging to a teacher's subjects.
func (r *Repository) AttendanceRows(ctx context.Context, teacherID string) ([]AttendanceRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.session_id, a.status
		FROM attendance a
		JOIN sessions sess ON sess.session_id = a.session_id
		JOIN subjects sub ON sub.subject_id = sess.subject_id
		WHERE sub.teacher_id = $1
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AttendanceRow
	for rows.Next() {
		var row AttendanceRow
		if err := rows.Scan(&row.SessionID, &row.Status); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// OverallRows aggregates per student and subject across a program or
// batch, with optional date bounds. Percentage is filled in by the
// service so the rounding rule lives in one place.
func (r *Repository) OverallRows(ctx context.Context, programID, batchID string, from, to *time.Time) ([]OverallRow, error) {
	query := `
		SELECT a.student_id, st.name, st.email, sub.subject_id, sub.subject_name,
			COUNT(a.attendance_id),
			SUM(CASE WHEN a.status = 'Present' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.status = 'Absent' THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.status = 'Pending' THEN 1 ELSE 0 END)
		FROM attendance a
		JOIN sessions sess ON sess.session_id = a.session_id
		JOIN subjects sub ON sub.subject_id = sess.subject_id
		LEFT JOIN students st ON st.student_id = a.student_id
		WHERE 1=1`
	args := []any{}
	if programID != "" {
		args = append(args, programID)
		query += fmt.Sprintf(" AND sess.program_id = $%d", len(args))
	}
	if batchID != "" {
		args = append(args, batchID)
		query += fmt.Sprintf(" AND sess.batch_id = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND a.attendance_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND a.attendance_date <= $%d", len(args))
	}
	query += `
		GROUP BY a.student_id, st.name, st.email, sub.subject_id, sub.subject_name
		ORDER BY a.student_id, sub.subject_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []OverallRow
	for rows.Next() {
		var row OverallRow
		if err := rows.Scan(&row.StudentID, &row.StudentName, &row.Email, &row.SubjectID, &row.SubjectName,
			&row.TotalSessions, &row.PresentCount, &row.AbsentCount, &row.PendingCount); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// StudentsInBatch returns the students whose guardians receive mailed
// reports for a batch.
func (r *Repository) StudentsInBatch(ctx context.Context, batchID string) ([]BatchStudent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, name, enrollment, guardian_email
		FROM students WHERE batch_id = $1 ORDER BY name
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []BatchStudent
	for rows.Next() {
		var s BatchStudent
		if err := rows.Scan(&s.ID, &s.Name, &s.Enrollment, &s.GuardianEmail); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// GetStudent reads one student, or nil when absent.
func (r *Repository) GetStudent(ctx context.Context, studentID string) (*BatchStudent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, enrollment, guardian_email FROM students WHERE student_id = $1
	`, studentID)
	var s BatchStudent
	if err := row.Scan(&s.ID, &s.Name, &s.Enrollment, &s.GuardianEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
