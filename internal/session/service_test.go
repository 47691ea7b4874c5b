package session

import (
	"context"
	"testing"
	"time"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/location"
)

type fakeStore struct {
	sessions map[string]Session
	subjects map[string]Subject
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]Session{}, subjects: map[string]Subject{}}
}

func (f *fakeStore) Insert(_ context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = "sess-1"
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) Update(_ context.Context, s Session) (Session, error) {
	s.UpdatedAt = time.Now().UTC()
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ Filter) ([]Session, error) {
	return nil, nil
}

func (f *fakeStore) ListActiveForStudent(_ context.Context, _ string, _ time.Time) ([]Session, error) {
	return nil, nil
}

func (f *fakeStore) GetSubject(_ context.Context, id string) (*Subject, error) {
	sub, ok := f.subjects[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

type fakeLocations struct {
	locations map[string]location.Location
}

func (f *fakeLocations) Get(_ context.Context, id string) (*location.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	store.subjects["sub-1"] = Subject{ID: "sub-1", Name: "Databases", Code: "CS301", TeacherID: "t1"}
	locs := &fakeLocations{locations: map[string]location.Location{
		"loc-1": {ID: "loc-1", CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 200},
	}}
	return NewService(store, locs), store
}

func validOpenInput() OpenInput {
	return OpenInput{
		SubjectID:  "sub-1",
		BatchID:    "batch-1",
		ProgramID:  "prog-1",
		LocationID: "loc-1",
		StartTime:  time.Now().UTC(),
	}
}

var (
	teacher      = authz.Caller{ID: "t1", Role: authz.RoleTeacher}
	otherTeacher = authz.Caller{ID: "t2", Role: authz.RoleTeacher}
	admin        = authz.Caller{ID: "a1", Role: authz.RoleAdmin}
)

func TestOpen(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.Open(ctx, teacher, validOpenInput())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess.Status != StatusOpen {
		t.Errorf("status = %q, want Open", sess.Status)
	}
	if sess.TeacherID != "t1" {
		t.Errorf("teacher = %q, want caller t1", sess.TeacherID)
	}
	if !sess.AcceptingCheckIns() {
		t.Error("new session should accept check-ins")
	}
}

func TestOpenValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		caller authz.Caller
		mutate func(*OpenInput)
		want   apperr.Kind
	}{
		{"missing subject", teacher, func(in *OpenInput) { in.SubjectID = "" }, apperr.KindInvalid},
		{"missing location", teacher, func(in *OpenInput) { in.LocationID = "" }, apperr.KindInvalid},
		{"zero start time", teacher, func(in *OpenInput) { in.StartTime = time.Time{} }, apperr.KindInvalid},
		{"unknown subject", teacher, func(in *OpenInput) { in.SubjectID = "nope" }, apperr.KindNotFound},
		{"unknown location", teacher, func(in *OpenInput) { in.LocationID = "nope" }, apperr.KindNotFound},
		{"not the assigned teacher", otherTeacher, func(*OpenInput) {}, apperr.KindForbidden},
		{"student cannot open", authz.Caller{ID: "s1", Role: authz.RoleStudent}, func(*OpenInput) {}, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validOpenInput()
			tt.mutate(&in)
			_, err := svc.Open(ctx, tt.caller, in)
			if apperr.KindOf(err) != tt.want {
				t.Errorf("Open error = %v (kind %v), want kind %v", err, apperr.KindOf(err), tt.want)
			}
		})
	}
}

func TestOpenByAdmin(t *testing.T) {
	svc, _ := newTestService()
	sess, err := svc.Open(context.Background(), admin, validOpenInput())
	if err != nil {
		t.Fatalf("Open by admin: %v", err)
	}
	if sess.TeacherID != admin.ID {
		t.Errorf("admin-opened session owner = %q, want %q", sess.TeacherID, admin.ID)
	}
}

func TestCloseTwice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sess, err := svc.Open(ctx, teacher, validOpenInput())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	closed, err := svc.Close(ctx, teacher, sess.ID)
	if err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if closed.Status != StatusClosed {
		t.Errorf("status = %q, want Closed", closed.Status)
	}
	if closed.EndTime == nil {
		t.Error("end time should be stamped on close")
	}
	if closed.AcceptingCheckIns() {
		t.Error("closed session should not accept check-ins")
	}

	_, err = svc.Close(ctx, teacher, sess.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("second Close error = %v, want Conflict", err)
	}
}

func TestClosePreservesEndTime(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	in := validOpenInput()
	in.EndTime = &end
	sess, err := svc.Open(ctx, teacher, in)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	closed, err := svc.Close(ctx, teacher, sess.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.EndTime == nil || !closed.EndTime.Equal(end) {
		t.Errorf("end time = %v, want preserved %v", closed.EndTime, end)
	}
}

func TestCloseAuthorization(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sess, _ := svc.Open(ctx, teacher, validOpenInput())

	if _, err := svc.Close(ctx, otherTeacher, sess.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("other teacher Close error = %v, want Forbidden", err)
	}
	if _, err := svc.Close(ctx, teacher, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Close missing session error = %v, want NotFound", err)
	}
	if _, err := svc.Close(ctx, admin, sess.ID); err != nil {
		t.Errorf("admin Close: %v", err)
	}
}

func TestUpdateForbidsReopen(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sess, _ := svc.Open(ctx, teacher, validOpenInput())
	if _, err := svc.Close(ctx, teacher, sess.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	open := StatusOpen
	_, err := svc.Update(ctx, teacher, sess.ID, UpdateInput{Status: &open})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("reopen via Update error = %v, want Conflict", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	sess, _ := svc.Open(ctx, teacher, validOpenInput())

	newBatch := "batch-2"
	updated, err := svc.Update(ctx, teacher, sess.ID, UpdateInput{BatchID: &newBatch})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.BatchID != "batch-2" {
		t.Errorf("batch = %q, want batch-2", updated.BatchID)
	}
	if updated.SubjectID != sess.SubjectID || updated.Status != StatusOpen {
		t.Error("untouched fields must be preserved")
	}

	bad := Status("Paused")
	if _, err := svc.Update(ctx, teacher, sess.ID, UpdateInput{Status: &bad}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("invalid status error = %v, want Invalid", err)
	}
	if _, err := svc.Update(ctx, otherTeacher, sess.ID, UpdateInput{BatchID: &newBatch}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("other teacher Update error = %v, want Forbidden", err)
	}
}

func TestDelete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	sess, _ := svc.Open(ctx, teacher, validOpenInput())

	if err := svc.Delete(ctx, teacher, sess.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher Delete error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, admin, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Delete missing error = %v, want NotFound", err)
	}
	if err := svc.Delete(ctx, admin, sess.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if _, ok := store.sessions[sess.ID]; ok {
		t.Error("session should be gone after delete")
	}
}
