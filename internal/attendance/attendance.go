// Package attendance is the per-student-per-session ledger. A record is
// created once, by the student's check-in or by an admin, and only the
// owning teacher or an admin may change it afterwards.
package attendance

import "time"

// Status is the attendance state of one record.
type Status string

const (
	// StatusPresent means the check-in landed inside the geofence, or a
	// teacher verified it.
	StatusPresent Status = "Present"
	// StatusAbsent is reachable only through a teacher override.
	StatusAbsent Status = "Absent"
	// StatusPending means checked in outside the geofence, awaiting
	// teacher judgment.
	StatusPending Status = "Pending"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusPending
}

// Record is one attendance entry. Coordinates are nullable: admin-made
// manual records never went through the geofence.
type Record struct {
	ID             string     `json:"attendanceId"`
	SessionID      string     `json:"sessionId"`
	StudentID      string     `json:"studentId"`
	AttendanceDate time.Time  `json:"attendanceDate"`
	Status         Status     `json:"status"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	TeacherComment *string    `json:"teacherComment,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LocationCheck is the boundary-test detail returned to a checking-in
// student for transparency.
type LocationCheck struct {
	IsWithinBoundary bool    `json:"isWithinBoundary"`
	CampusName       string  `json:"campusName"`
	DistanceMeters   float64 `json:"distance"`
}

// CheckInResult pairs the created record with the boundary detail.
type CheckInResult struct {
	Record   Record        `json:"attendance"`
	Location LocationCheck `json:"locationCheck"`
}

// StudentInfo is the slice of student identity shown to teachers.
type StudentInfo struct {
	ID         string  `json:"userId"`
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Enrollment *string `json:"rollNumber"`
}

// SessionRecord is a ledger row joined with the student's identity, for
// a teacher reviewing one session.
type SessionRecord struct {
	AttendanceID   string      `json:"attendanceId"`
	Student        StudentInfo `json:"student"`
	Status         Status      `json:"status"`
	Latitude       *float64    `json:"latitude,omitempty"`
	Longitude      *float64    `json:"longitude,omitempty"`
	TeacherComment *string     `json:"teacherComment,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// HistoryEntry is a ledger row joined with subject context, for a
// student browsing their own history.
type HistoryEntry struct {
	AttendanceID string    `json:"attendanceId"`
	Date         time.Time `json:"date"`
	Status       Status    `json:"status"`
	SubjectName  string    `json:"subject"`
	TeacherID    string    `json:"teacherId"`
	SessionID    string    `json:"sessionId"`
}

// Filter narrows admin/teacher ledger listings.
type Filter struct {
	SessionID string
	StudentID string
	Status    string
	From      *time.Time
	To        *time.Time
}
