package report

import (
	"context"
	"time"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/session"
)

// Store is the read surface the aggregator needs.
type Store interface {
	StudentSubjectRows(ctx context.Context, studentID string) ([]StatusRow, error)
	GetSubject(ctx context.Context, id string) (*session.Subject, error)
	SubjectRecordRows(ctx context.Context, subjectID, teacherID string, from, to *time.Time) ([]RecordRow, error)
	TeacherSubjects(ctx context.Context, teacherID string) ([]session.Subject, error)
	SessionRows(ctx context.Context, teacherID string) ([]SessionRow, error)
	AttendanceRows(ctx context.Context, teacherID string) ([]AttendanceRow, error)
	OverallRows(ctx context.Context, programID, batchID string, from, to *time.Time) ([]OverallRow, error)
	StudentsInBatch(ctx context.Context, batchID string) ([]BatchStudent, error)
	GetStudent(ctx context.Context, studentID string) (*BatchStudent, error)
}

// Service computes attendance reports.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// StudentStats returns the caller's own per-subject attendance rollup.
func (s *Service) StudentStats(ctx context.Context, caller authz.Caller) ([]SubjectStats, error) {
	return s.StatsForStudent(ctx, caller.ID)
}

// StatsForStudent groups a student's records by subject. Also used by
// the guardian report worker, which acts on the admin's behalf.
func (s *Service) StatsForStudent(ctx context.Context, studentID string) ([]SubjectStats, error) {
	rows, err := s.store.StudentSubjectRows(ctx, studentID)
	if err != nil {
		return nil, apperr.Internal("fetch student records failed", err)
	}

	// First-seen subject order, matching record order.
	index := map[string]int{}
	var stats []SubjectStats
	for _, row := range rows {
		i, ok := index[row.SubjectID]
		if !ok {
			i = len(stats)
			index[row.SubjectID] = i
			stats = append(stats, SubjectStats{SubjectID: row.SubjectID, SubjectName: row.SubjectName})
		}
		stats[i].Total++
		switch row.Status {
		case "Present":
			stats[i].Present++
		case "Absent":
			stats[i].Absent++
		case "Pending":
			stats[i].Pending++
		}
	}
	for i := range stats {
		stats[i].Percentage = Percentage(stats[i].Present, stats[i].Total)
	}
	return stats, nil
}

// TeacherSubjectReport builds the per-student rollup plus raw records
// for one subject, restricted to sessions the teacher owns.
func (s *Service) TeacherSubjectReport(ctx context.Context, caller authz.Caller, subjectID string, from, to *time.Time) (SubjectReport, error) {
	if subjectID == "" {
		return SubjectReport{}, apperr.Invalid("subject ID is required")
	}
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return SubjectReport{}, apperr.Internal("fetch subject failed", err)
	}
	if subject == nil {
		return SubjectReport{}, apperr.NotFound("subject not found")
	}
	if !authz.Allow(caller, subject.TeacherID, authz.ActionManageOwned) {
		return SubjectReport{}, apperr.Forbidden("you do not have permission to view this subject")
	}

	// Admins see the assigned teacher's sessions; teachers see their own.
	teacherID := caller.ID
	if caller.Role == authz.RoleAdmin {
		teacherID = subject.TeacherID
	}
	records, err := s.store.SubjectRecordRows(ctx, subjectID, teacherID, from, to)
	if err != nil {
		return SubjectReport{}, apperr.Internal("fetch subject records failed", err)
	}

	index := map[string]int{}
	var stats []StudentStat
	for _, row := range records {
		i, ok := index[row.StudentID]
		if !ok {
			i = len(stats)
			index[row.StudentID] = i
			stats = append(stats, StudentStat{StudentID: row.StudentID, StudentName: row.StudentName})
		}
		stats[i].Total++
		switch row.Status {
		case "Present":
			stats[i].Present++
		case "Absent":
			stats[i].Absent++
		case "Pending":
			stats[i].Pending++
		}
	}
	for i := range stats {
		stats[i].Percentage = Percentage(stats[i].Present, stats[i].Total)
	}

	return SubjectReport{
		SubjectID:    subjectID,
		SubjectName:  subject.Name,
		StudentStats: stats,
		Records:      records,
	}, nil
}

// TeacherSummary rolls up sessions and attendance per subject for the
// calling teacher, including how many sessions have completed.
func (s *Service) TeacherSummary(ctx context.Context, caller authz.Caller) ([]SubjectSummary, error) {
	subjects, err := s.store.TeacherSubjects(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("fetch subjects failed", err)
	}
	if len(subjects) == 0 {
		return []SubjectSummary{}, nil
	}

	sessionRows, err := s.store.SessionRows(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("fetch sessions failed", err)
	}
	attRows, err := s.store.AttendanceRows(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("fetch attendance failed", err)
	}

	sessionSubject := map[string]string{}
	sessionCount := map[string]int{}
	completedCount := map[string]int{}
	for _, row := range sessionRows {
		sessionSubject[row.SessionID] = row.SubjectID
		sessionCount[row.SubjectID]++
		if row.Status == string(session.StatusClosed) {
			completedCount[row.SubjectID]++
		}
	}

	rollups := map[string]*Rollup{}
	for _, row := range attRows {
		subjectID, ok := sessionSubject[row.SessionID]
		if !ok {
			continue
		}
		ru := rollups[subjectID]
		if ru == nil {
			ru = &Rollup{}
			rollups[subjectID] = ru
		}
		ru.Total++
		switch row.Status {
		case "Present":
			ru.Present++
		case "Absent":
			ru.Absent++
		case "Pending":
			ru.Pending++
		}
	}

	summary := make([]SubjectSummary, 0, len(subjects))
	for _, sub := range subjects {
		row := SubjectSummary{
			SubjectID:         sub.ID,
			SubjectName:       sub.Name,
			SubjectCode:       sub.Code,
			Sessions:          sessionCount[sub.ID],
			CompletedSessions: completedCount[sub.ID],
		}
		if ru := rollups[sub.ID]; ru != nil {
			row.Attendance = *ru
		}
		row.Attendance.Percentage = Percentage(row.Attendance.Present, row.Attendance.Total)
		summary = append(summary, row)
	}
	return summary, nil
}

// OverallReport is the admin cross-cut: per student and subject counts
// within a program or batch. One of the two scopes is required.
func (s *Service) OverallReport(ctx context.Context, caller authz.Caller, programID, batchID string, from, to *time.Time) ([]OverallRow, error) {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return nil, apperr.Forbidden("only admins can access overall attendance reports")
	}
	if programID == "" && batchID == "" {
		return nil, apperr.Invalid("program ID or batch ID is required")
	}
	rows, err := s.store.OverallRows(ctx, programID, batchID, from, to)
	if err != nil {
		return nil, apperr.Internal("overall report failed", err)
	}
	for i := range rows {
		rows[i].AttendancePercentage = Percentage(rows[i].PresentCount, rows[i].TotalSessions)
	}
	return rows, nil
}

// StudentsInBatch lists report recipients for a batch.
func (s *Service) StudentsInBatch(ctx context.Context, batchID string) ([]BatchStudent, error) {
	students, err := s.store.StudentsInBatch(ctx, batchID)
	if err != nil {
		return nil, apperr.Internal("fetch batch students failed", err)
	}
	return students, nil
}

// Student reads one report recipient.
func (s *Service) Student(ctx context.Context, studentID string) (BatchStudent, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return BatchStudent{}, apperr.Internal("fetch student failed", err)
	}
	if st == nil {
		return BatchStudent{}, apperr.NotFound("student not found")
	}
	return *st, nil
}
