// Package report rolls attendance records up into per-student,
// per-subject, and per-teacher statistics. Read-only: it never mutates
// ledger state.
package report

import (
	"math"
	"time"
)

// Percentage is the shared attendance rule: round(present/total*100),
// defined as 0 when total is 0.
func Percentage(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// SubjectStats is a student's rollup for one subject.
type SubjectStats struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Total       int    `json:"total"`
	Present     int    `json:"present"`
	Absent      int    `json:"absent"`
	Pending     int    `json:"pending"`
	Percentage  int    `json:"percentage"`
}

// StudentStat is one student's rollup inside a subject report.
type StudentStat struct {
	StudentID   string  `json:"studentId"`
	StudentName *string `json:"studentName"`
	Total       int     `json:"total"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Pending     int     `json:"pending"`
	Percentage  int     `json:"percentage"`
}

// RecordRow is a flat ledger row with student identity, as fetched for
// a subject report.
type RecordRow struct {
	AttendanceID   string    `json:"attendanceId"`
	SessionID      string    `json:"sessionId"`
	StudentID      string    `json:"studentId"`
	StudentName    *string   `json:"studentName"`
	AttendanceDate time.Time `json:"attendanceDate"`
	Status         string    `json:"status"`
}

// SubjectReport is the teacher-facing view of one subject.
type SubjectReport struct {
	SubjectID    string        `json:"subjectId"`
	SubjectName  string        `json:"subjectName"`
	StudentStats []StudentStat `json:"studentStats"`
	Records      []RecordRow   `json:"records"`
}

// Rollup is an aggregate over attendance records.
type Rollup struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Pending    int `json:"pending"`
	Percentage int `json:"percentage"`
}

// SubjectSummary is one row of a teacher's summary.
type SubjectSummary struct {
	SubjectID         string `json:"subjectId"`
	SubjectName       string `json:"subjectName"`
	SubjectCode       string `json:"subjectCode"`
	Sessions          int    `json:"sessions"`
	CompletedSessions int    `json:"completedSessions"`
	Attendance        Rollup `json:"attendance"`
}

// OverallRow is one student-subject row of the admin report.
type OverallRow struct {
	StudentID            string  `json:"studentId"`
	StudentName          *string `json:"name"`
	Email                *string `json:"email"`
	SubjectID            string  `json:"subjectId"`
	SubjectName          string  `json:"subjectName"`
	TotalSessions        int     `json:"totalSessions"`
	PresentCount         int     `json:"presentCount"`
	AbsentCount          int     `json:"absentCount"`
	PendingCount         int     `json:"pendingCount"`
	AttendancePercentage int     `json:"attendancePercentage"`
}

// BatchStudent identifies a student targeted by guardian report mail.
type BatchStudent struct {
	ID            string  `json:"studentId"`
	Name          string  `json:"name"`
	Enrollment    *string `json:"enrollment"`
	GuardianEmail *string `json:"guardianEmail"`
}

// StatusRow is a flat (subject, status) pair for one student's record.
type StatusRow struct {
	SubjectID   string
	SubjectName string
	Status      string
}

// SessionRow is a flat session row for the teacher summary grouping.
type SessionRow struct {
	SessionID string
	SubjectID string
	Status    string
}

// AttendanceRow is a flat (session, status) pair for summary grouping.
type AttendanceRow struct {
	SessionID string
	Status    string
}
