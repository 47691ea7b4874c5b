package session

import (
	"context"
	"time"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/location"
	"campusattend/internal/metrics"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) ([]Session, error)
	ListActiveForStudent(ctx context.Context, studentID string, now time.Time) ([]Session, error)
	GetSubject(ctx context.Context, id string) (*Subject, error)
}

// Locations resolves campus locations for existence checks.
type Locations interface {
	Get(ctx context.Context, id string) (*location.Location, error)
}

// Service manages the session lifecycle.
type Service struct {
	store     Store
	locations Locations
}

// NewService creates a service.
func NewService(store Store, locations Locations) *Service {
	return &Service{store: store, locations: locations}
}

// OpenInput is the payload for opening a session.
type OpenInput struct {
	SubjectID  string
	BatchID    string
	ProgramID  string
	LocationID string
	StartTime  time.Time
	EndTime    *time.Time
}

// Open creates a new session owned by the caller. The caller must be the
// assigned teacher of the subject, or an admin.
func (s *Service) Open(ctx context.Context, caller authz.Caller, in OpenInput) (Session, error) {
	if in.SubjectID == "" || in.BatchID == "" || in.ProgramID == "" || in.LocationID == "" || in.StartTime.IsZero() {
		return Session{}, apperr.Invalid("subject ID, batch ID, program ID, start time, and location ID are required")
	}

	subject, err := s.store.GetSubject(ctx, in.SubjectID)
	if err != nil {
		return Session{}, apperr.Internal("fetch subject failed", err)
	}
	if subject == nil {
		return Session{}, apperr.NotFound("subject not found")
	}
	if !authz.Allow(caller, subject.TeacherID, authz.ActionManageOwned) {
		return Session{}, apperr.Forbidden("you do not have permission to create a session for this subject")
	}

	loc, err := s.locations.Get(ctx, in.LocationID)
	if err != nil {
		return Session{}, apperr.Internal("fetch location failed", err)
	}
	if loc == nil {
		return Session{}, apperr.NotFound("location not found")
	}

	created, err := s.store.Insert(ctx, Session{
		TeacherID:  caller.ID,
		SubjectID:  in.SubjectID,
		ProgramID:  in.ProgramID,
		BatchID:    in.BatchID,
		LocationID: in.LocationID,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Status:     StatusOpen,
	})
	if err != nil {
		return Session{}, apperr.Internal("create session failed", err)
	}
	metrics.SessionsOpened.Inc()
	return created, nil
}

// Close transitions a session to Closed. Closing an already-closed
// session is a user error, not a silent no-op. The end time is stamped
// only when it was never set.
func (s *Service) Close(ctx context.Context, caller authz.Caller, sessionID string) (Session, error) {
	existing, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, apperr.Internal("fetch session failed", err)
	}
	if existing == nil {
		return Session{}, apperr.NotFound("session not found")
	}
	if !authz.Allow(caller, existing.TeacherID, authz.ActionManageOwned) {
		return Session{}, apperr.Forbidden("you do not have permission to close this session")
	}
	if existing.Status == StatusClosed {
		return Session{}, apperr.Conflict("session is already closed")
	}

	closed := *existing
	closed.Status = StatusClosed
	if closed.EndTime == nil {
		now := time.Now().UTC()
		closed.EndTime = &now
	}
	updated, err := s.store.Update(ctx, closed)
	if err != nil {
		return Session{}, apperr.Internal("close session failed", err)
	}
	metrics.SessionsClosed.Inc()
	return updated, nil
}

// UpdateInput carries optional fields for a partial session update.
type UpdateInput struct {
	SubjectID  *string
	BatchID    *string
	ProgramID  *string
	LocationID *string
	StartTime  *time.Time
	EndTime    *time.Time
	Status     *Status
}

// Update applies a partial update. Reopening a closed session is
// rejected: Closed is terminal.
func (s *Service) Update(ctx context.Context, caller authz.Caller, sessionID string, in UpdateInput) (Session, error) {
	existing, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, apperr.Internal("fetch session failed", err)
	}
	if existing == nil {
		return Session{}, apperr.NotFound("session not found")
	}
	if !authz.Allow(caller, existing.TeacherID, authz.ActionManageOwned) {
		return Session{}, apperr.Forbidden("you do not have permission to update this session")
	}

	next := *existing
	if in.SubjectID != nil {
		next.SubjectID = *in.SubjectID
	}
	if in.BatchID != nil {
		next.BatchID = *in.BatchID
	}
	if in.ProgramID != nil {
		next.ProgramID = *in.ProgramID
	}
	if in.LocationID != nil {
		next.LocationID = *in.LocationID
	}
	if in.StartTime != nil {
		next.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		next.EndTime = in.EndTime
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Session{}, apperr.Invalid("status must be Open or Closed")
		}
		if existing.Status == StatusClosed && *in.Status == StatusOpen {
			return Session{}, apperr.Conflict("a closed session cannot be reopened")
		}
		next.Status = *in.Status
	}

	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return Session{}, apperr.Internal("update session failed", err)
	}
	return updated, nil
}

// Get returns one session. Any authenticated caller.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	existing, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, apperr.Internal("fetch session failed", err)
	}
	if existing == nil {
		return Session{}, apperr.NotFound("session not found")
	}
	return *existing, nil
}

// List returns sessions for admins with optional filters.
func (s *Service) List(ctx context.Context, caller authz.Caller, f Filter) ([]Session, error) {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return nil, apperr.Forbidden("access denied")
	}
	res, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list sessions failed", err)
	}
	return res, nil
}

// ListForTeacher returns the caller's own sessions, optionally filtered
// by status and a single day.
func (s *Service) ListForTeacher(ctx context.Context, caller authz.Caller, status string, day *time.Time) ([]Session, error) {
	f := Filter{TeacherID: caller.ID, Status: status}
	if day != nil {
		start := day.Truncate(24 * time.Hour)
		end := start.Add(24 * time.Hour)
		f.StartFrom = &start
		f.StartTo = &end
	}
	res, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list sessions failed", err)
	}
	return res, nil
}

// ListActiveForStudent returns upcoming open sessions for the caller's
// enrolled subjects.
func (s *Service) ListActiveForStudent(ctx context.Context, caller authz.Caller) ([]Session, error) {
	res, err := s.store.ListActiveForStudent(ctx, caller.ID, time.Now().UTC())
	if err != nil {
		return nil, apperr.Internal("list active sessions failed", err)
	}
	return res, nil
}

// Delete removes a session and, by cascade, every attendance record in
// it. Irreversible; admin only.
func (s *Service) Delete(ctx context.Context, caller authz.Caller, sessionID string) error {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return apperr.Forbidden("only admins can delete sessions")
	}
	existing, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return apperr.Internal("fetch session failed", err)
	}
	if existing == nil {
		return apperr.NotFound("session not found")
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperr.Internal("delete session failed", err)
	}
	return nil
}
