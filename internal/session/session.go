// Package session owns the teaching-session lifecycle: Open → Closed,
// never back.
package session

import "time"

// Status is the session lifecycle state.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Session is one scheduled meeting of a subject, owned by a teacher and
// bound to a single campus location for its whole life.
type Session struct {
	ID         string     `json:"sessionId"`
	TeacherID  string     `json:"teacherId"`
	SubjectID  string     `json:"subjectId"`
	ProgramID  string     `json:"programId"`
	BatchID    string     `json:"batchId"`
	LocationID string     `json:"locationId"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// AcceptingCheckIns reports whether students may still check in.
func (s Session) AcceptingCheckIns() bool {
	return s.Status == StatusOpen
}

// Subject is the slice of the academic catalog this service reads for
// ownership checks. Maintained by the external CRUD layer.
type Subject struct {
	ID        string `json:"subjectId"`
	Name      string `json:"subjectName"`
	Code      string `json:"subjectCode"`
	TeacherID string `json:"teacherId"`
}
