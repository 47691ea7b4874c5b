package attendance

import (
	"context"
	"math"
	"time"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/geo"
	"campusattend/internal/location"
	"campusattend/internal/metrics"
	"campusattend/internal/session"
	"campusattend/internal/store"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Find(ctx context.Context, sessionID, studentID string) (*Record, error)
	UpdateStatus(ctx context.Context, id string, status Status, comment *string) (Record, error)
	PromotePending(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, id string) error
	ListForSession(ctx context.Context, sessionID string) ([]SessionRecord, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	HistoryForStudent(ctx context.Context, studentID string) ([]HistoryEntry, error)
}

// Sessions resolves sessions for state and ownership checks.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Locations resolves the campus boundary a session is bound to.
type Locations interface {
	Get(ctx context.Context, id string) (*location.Location, error)
}

// Service coordinates check-ins and teacher reconciliation.
type Service struct {
	store     Store
	sessions  Sessions
	locations Locations
}

// NewService creates a service.
func NewService(store Store, sessions Sessions, locations Locations) *Service {
	return &Service{store: store, sessions: sessions, locations: locations}
}

// CheckIn records the caller's attendance for a session. Being outside
// the geofence does not reject the check-in: the record is created as
// Pending and left to the teacher. Absent is never assigned here.
func (s *Service) CheckIn(ctx context.Context, caller authz.Caller, sessionID string, lat, lon float64) (CheckInResult, error) {
	if sessionID == "" {
		return CheckInResult{}, apperr.Invalid("session ID, latitude, and longitude are required")
	}
	point := geo.Point{Lat: lat, Lon: lon}
	if err := geo.ValidatePoint(point); err != nil {
		return CheckInResult{}, err
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return CheckInResult{}, apperr.Internal("fetch session failed", err)
	}
	if sess == nil {
		return CheckInResult{}, apperr.NotFound("session not found")
	}
	if !sess.AcceptingCheckIns() {
		return CheckInResult{}, apperr.Conflict("this session is closed for attendance")
	}

	existing, err := s.store.Find(ctx, sessionID, caller.ID)
	if err != nil {
		return CheckInResult{}, apperr.Internal("duplicate check failed", err)
	}
	if existing != nil {
		return CheckInResult{}, apperr.Conflict("you have already marked attendance for this session (status: %s)", existing.Status)
	}

	loc, err := s.locations.Get(ctx, sess.LocationID)
	if err != nil {
		return CheckInResult{}, apperr.Internal("fetch session location failed", err)
	}
	if loc == nil {
		return CheckInResult{}, apperr.NotFound("session location not found")
	}

	boundary := loc.Boundary()
	distance := geo.DistanceMeters(lat, lon, boundary.Center.Lat, boundary.Center.Lon)
	status := StatusPending
	if geo.IsWithinBoundary(point, boundary) {
		status = StatusPresent
	}

	rec, err := s.store.Insert(ctx, Record{
		SessionID:      sessionID,
		StudentID:      caller.ID,
		AttendanceDate: time.Now().UTC(),
		Status:         status,
		Latitude:       &lat,
		Longitude:      &lon,
	})
	if err != nil {
		// Concurrent duplicate: the unique index won the race.
		if store.IsUniqueViolation(err) {
			return CheckInResult{}, apperr.Conflict("you have already marked attendance for this session")
		}
		return CheckInResult{}, apperr.Internal("create attendance failed", err)
	}
	metrics.CheckIns.WithLabelValues(string(status)).Inc()

	return CheckInResult{
		Record: rec,
		Location: LocationCheck{
			IsWithinBoundary: status == StatusPresent,
			CampusName:       boundary.Name,
			DistanceMeters:   math.Round(distance),
		},
	}, nil
}

// TeacherSetStatus overrides one record's status and optionally the
// comment. Coordinates and attendance date are untouched.
func (s *Service) TeacherSetStatus(ctx context.Context, caller authz.Caller, attendanceID string, status Status, comment *string) (Record, error) {
	if status == "" {
		return Record{}, apperr.Invalid("status is required")
	}
	if !status.Valid() {
		return Record{}, apperr.Invalid("status must be one of Present, Absent, Pending")
	}

	rec, err := s.store.Get(ctx, attendanceID)
	if err != nil {
		return Record{}, apperr.Internal("fetch attendance failed", err)
	}
	if rec == nil {
		return Record{}, apperr.NotFound("attendance record not found")
	}

	sess, err := s.sessions.Get(ctx, rec.SessionID)
	if err != nil {
		return Record{}, apperr.Internal("fetch session failed", err)
	}
	if sess == nil {
		return Record{}, apperr.NotFound("session not found")
	}
	if !authz.Allow(caller, sess.TeacherID, authz.ActionManageOwned) {
		return Record{}, apperr.Forbidden("you do not have permission to update this attendance record")
	}

	updated, err := s.store.UpdateStatus(ctx, attendanceID, status, comment)
	if err != nil {
		return Record{}, apperr.Internal("update attendance failed", err)
	}
	return updated, nil
}

// VerifyAllPending promotes every Pending record in a session to
// Present. Idempotent: a second call finds nothing pending and returns 0.
func (s *Service) VerifyAllPending(ctx context.Context, caller authz.Caller, sessionID string) (int64, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, apperr.Internal("fetch session failed", err)
	}
	if sess == nil {
		return 0, apperr.NotFound("session not found")
	}
	if !authz.Allow(caller, sess.TeacherID, authz.ActionManageOwned) {
		return 0, apperr.Forbidden("you do not have permission to modify this session")
	}

	count, err := s.store.PromotePending(ctx, sessionID)
	if err != nil {
		return 0, apperr.Internal("verify attendance failed", err)
	}
	return count, nil
}

// CreateInput is the admin payload for a manual record.
type CreateInput struct {
	StudentID string
	SessionID string
	Status    Status
	Latitude  *float64
	Longitude *float64
	Date      *time.Time
}

// AdminCreate inserts a manual record with an explicit status. Manual
// records need not have been geofence-validated, so coordinates are
// optional.
func (s *Service) AdminCreate(ctx context.Context, caller authz.Caller, in CreateInput) (Record, error) {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return Record{}, apperr.Forbidden("only admins can create attendance records manually")
	}
	if in.StudentID == "" || in.SessionID == "" || in.Status == "" {
		return Record{}, apperr.Invalid("student ID, session ID, and status are required")
	}
	if !in.Status.Valid() {
		return Record{}, apperr.Invalid("status must be one of Present, Absent, Pending")
	}
	if in.Latitude != nil && in.Longitude != nil {
		if err := geo.ValidatePoint(geo.Point{Lat: *in.Latitude, Lon: *in.Longitude}); err != nil {
			return Record{}, err
		}
	}

	sess, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return Record{}, apperr.Internal("fetch session failed", err)
	}
	if sess == nil {
		return Record{}, apperr.NotFound("session not found")
	}

	existing, err := s.store.Find(ctx, in.SessionID, in.StudentID)
	if err != nil {
		return Record{}, apperr.Internal("duplicate check failed", err)
	}
	if existing != nil {
		return Record{}, apperr.Conflict("attendance record already exists for this student in this session")
	}

	date := time.Now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	rec, err := s.store.Insert(ctx, Record{
		SessionID:      in.SessionID,
		StudentID:      in.StudentID,
		AttendanceDate: date,
		Status:         in.Status,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Record{}, apperr.Conflict("attendance record already exists for this student in this session")
		}
		return Record{}, apperr.Internal("create attendance failed", err)
	}
	return rec, nil
}

// AdminDelete removes a record unconditionally. Admin only.
func (s *Service) AdminDelete(ctx context.Context, caller authz.Caller, attendanceID string) error {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return apperr.Forbidden("only admins can delete attendance records")
	}
	rec, err := s.store.Get(ctx, attendanceID)
	if err != nil {
		return apperr.Internal("fetch attendance failed", err)
	}
	if rec == nil {
		return apperr.NotFound("attendance record not found")
	}
	if err := s.store.Delete(ctx, attendanceID); err != nil {
		return apperr.Internal("delete attendance failed", err)
	}
	return nil
}

// Get returns one record. Any authenticated caller.
func (s *Service) Get(ctx context.Context, attendanceID string) (Record, error) {
	rec, err := s.store.Get(ctx, attendanceID)
	if err != nil {
		return Record{}, apperr.Internal("fetch attendance failed", err)
	}
	if rec == nil {
		return Record{}, apperr.NotFound("attendance record not found")
	}
	return *rec, nil
}

// ListForSession returns a session's records for its teacher or an admin.
func (s *Service) ListForSession(ctx context.Context, caller authz.Caller, sessionID string) ([]SessionRecord, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("fetch session failed", err)
	}
	if sess == nil {
		return nil, apperr.NotFound("session not found")
	}
	if !authz.Allow(caller, sess.TeacherID, authz.ActionManageOwned) {
		return nil, apperr.Forbidden("you do not have permission to view this session")
	}
	res, err := s.store.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("list attendance failed", err)
	}
	return res, nil
}

// List returns records for admins and teachers with optional filters.
func (s *Service) List(ctx context.Context, caller authz.Caller, f Filter) ([]Record, error) {
	if caller.Role != authz.RoleAdmin && caller.Role != authz.RoleTeacher {
		return nil, apperr.Forbidden("you do not have permission to access this resource")
	}
	res, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list attendance failed", err)
	}
	return res, nil
}

// HistoryForStudent returns the caller's own history, newest first.
func (s *Service) HistoryForStudent(ctx context.Context, caller authz.Caller) ([]HistoryEntry, error) {
	res, err := s.store.HistoryForStudent(ctx, caller.ID)
	if err != nil {
		return nil, apperr.Internal("fetch attendance history failed", err)
	}
	return res, nil
}
