package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/location"
	"campusattend/internal/session"
)

type fakeLedger struct {
	records map[string]Record
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]Record{}}
}

func (f *fakeLedger) Insert(_ context.Context, rec Record) (Record, error) {
	for _, r := range f.records {
		if r.SessionID == rec.SessionID && r.StudentID == rec.StudentID {
			return Record{}, &pgconn.PgError{Code: "23505"}
		}
	}
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeLedger) Get(_ context.Context, id string) (*Record, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeLedger) Find(_ context.Context, sessionID, studentID string) (*Record, error) {
	for _, r := range f.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) UpdateStatus(_ context.Context, id string, status Status, comment *string) (Record, error) {
	r := f.records[id]
	r.Status = status
	if comment != nil {
		r.TeacherComment = comment
	}
	f.records[id] = r
	return r, nil
}

func (f *fakeLedger) PromotePending(_ context.Context, sessionID string) (int64, error) {
	var n int64
	for id, r := range f.records {
		if r.SessionID == sessionID && r.Status == StatusPending {
			r.Status = StatusPresent
			f.records[id] = r
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) Delete(_ context.Context, id string) error {
	delete(f.records, id)
	return nil
}

func (f *fakeLedger) ListForSession(_ context.Context, _ string) ([]SessionRecord, error) {
	return nil, nil
}

func (f *fakeLedger) List(_ context.Context, _ Filter) ([]Record, error) {
	return nil, nil
}

func (f *fakeLedger) HistoryForStudent(_ context.Context, _ string) ([]HistoryEntry, error) {
	return nil, nil
}

type fakeSessions struct {
	sessions map[string]session.Session
}

func (f *fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
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

const (
	campusLat = 12.9716
	campusLon = 77.5946
)

var (
	student = authz.Caller{ID: "stu-1", Role: authz.RoleStudent}
	teacher = authz.Caller{ID: "t1", Role: authz.RoleTeacher}
	admin   = authz.Caller{ID: "a1", Role: authz.RoleAdmin}
)

func newTestService() (*Service, *fakeLedger, *fakeSessions) {
	ledger := newFakeLedger()
	sessions := &fakeSessions{sessions: map[string]session.Session{
		"open": {ID: "open", TeacherID: "t1", LocationID: "loc-1", Status: session.StatusOpen},
		"done": {ID: "done", TeacherID: "t1", LocationID: "loc-1", Status: session.StatusClosed},
	}}
	locs := &fakeLocations{locations: map[string]location.Location{
		"loc-1": {ID: "loc-1", CampusName: "Main Campus", CenterLat: campusLat, CenterLon: campusLon, RadiusMeters: 200},
	}}
	return NewService(ledger, sessions, locs), ledger, sessions
}

func TestCheckInInsideBoundary(t *testing.T) {
	svc, _, _ := newTestService()

	res, err := svc.CheckIn(context.Background(), student, "open", campusLat, campusLon)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.Record.Status != StatusPresent {
		t.Errorf("status = %q, want Present", res.Record.Status)
	}
	if !res.Location.IsWithinBoundary {
		t.Error("check at the campus center must be within the boundary")
	}
	if res.Location.DistanceMeters != 0 {
		t.Errorf("distance = %v, want 0", res.Location.DistanceMeters)
	}
	if res.Location.CampusName != "Main Campus" {
		t.Errorf("campus = %q, want Main Campus", res.Location.CampusName)
	}
	if res.Record.Latitude == nil || *res.Record.Latitude != campusLat {
		t.Error("check-in coordinates must be stored on the record")
	}
}

func TestCheckInOutsideBoundary(t *testing.T) {
	svc, _, _ := newTestService()

	// ~500m north of the campus center, well past the 200m radius.
	res, err := svc.CheckIn(context.Background(), student, "open", 12.9761, campusLon)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.Record.Status != StatusPending {
		t.Errorf("status = %q, want Pending (never Absent at check-in)", res.Record.Status)
	}
	if res.Location.IsWithinBoundary {
		t.Error("500m away must be outside a 200m boundary")
	}
	if res.Location.DistanceMeters <= 200 {
		t.Errorf("distance = %v, want > 200", res.Location.DistanceMeters)
	}
}

func TestCheckInClosedSession(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CheckIn(context.Background(), student, "done", campusLat, campusLon)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("error = %v, want Conflict", err)
	}
}

func TestCheckInDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, student, "open", campusLat, campusLon); err != nil {
		t.Fatalf("first CheckIn: %v", err)
	}
	_, err := svc.CheckIn(ctx, student, "open", campusLat, campusLon)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("second CheckIn error = %v, want Conflict", err)
	}
	if !strings.Contains(apperr.Message(err), "Present") {
		t.Errorf("duplicate message %q should report the existing status", apperr.Message(err))
	}
}

func TestCheckInValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, student, "", campusLat, campusLon); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing session ID error = %v, want Invalid", err)
	}
	if _, err := svc.CheckIn(ctx, student, "open", 91, campusLon); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("latitude out of range error = %v, want Invalid", err)
	}
	if _, err := svc.CheckIn(ctx, student, "missing", campusLat, campusLon); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown session error = %v, want NotFound", err)
	}
}

func TestTeacherSetStatus(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()
	res, err := svc.CheckIn(ctx, student, "open", 12.9761, campusLon)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	comment := "verified in person"
	updated, err := svc.TeacherSetStatus(ctx, teacher, res.Record.ID, StatusPresent, &comment)
	if err != nil {
		t.Fatalf("TeacherSetStatus: %v", err)
	}
	if updated.Status != StatusPresent {
		t.Errorf("status = %q, want Present", updated.Status)
	}
	if updated.TeacherComment == nil || *updated.TeacherComment != comment {
		t.Error("comment should be stored")
	}
	if got := ledger.records[res.Record.ID]; got.Latitude == nil {
		t.Error("status override must not clear check-in coordinates")
	}

	other := authz.Caller{ID: "t2", Role: authz.RoleTeacher}
	if _, err := svc.TeacherSetStatus(ctx, other, res.Record.ID, StatusAbsent, nil); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("non-owner override error = %v, want Forbidden", err)
	}
	if _, err := svc.TeacherSetStatus(ctx, admin, res.Record.ID, StatusAbsent, nil); err != nil {
		t.Errorf("admin override: %v", err)
	}
	if _, err := svc.TeacherSetStatus(ctx, teacher, res.Record.ID, Status("Late"), nil); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("bad status error = %v, want Invalid", err)
	}
	if _, err := svc.TeacherSetStatus(ctx, teacher, "missing", StatusPresent, nil); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown record error = %v, want NotFound", err)
	}
}

func TestVerifyAllPendingIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	far := 12.9761
	for _, id := range []string{"stu-1", "stu-2"} {
		caller := authz.Caller{ID: id, Role: authz.RoleStudent}
		if _, err := svc.CheckIn(ctx, caller, "open", far, campusLon); err != nil {
			t.Fatalf("CheckIn %s: %v", id, err)
		}
	}
	// One student inside: already Present, must not be counted.
	inside := authz.Caller{ID: "stu-3", Role: authz.RoleStudent}
	if _, err := svc.CheckIn(ctx, inside, "open", campusLat, campusLon); err != nil {
		t.Fatalf("CheckIn stu-3: %v", err)
	}

	count, err := svc.VerifyAllPending(ctx, teacher, "open")
	if err != nil {
		t.Fatalf("VerifyAllPending: %v", err)
	}
	if count != 2 {
		t.Errorf("promoted = %d, want 2", count)
	}

	count, err = svc.VerifyAllPending(ctx, teacher, "open")
	if err != nil {
		t.Fatalf("second VerifyAllPending: %v", err)
	}
	if count != 0 {
		t.Errorf("second pass promoted = %d, want 0", count)
	}

	other := authz.Caller{ID: "t2", Role: authz.RoleTeacher}
	if _, err := svc.VerifyAllPending(ctx, other, "open"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("non-owner verify error = %v, want Forbidden", err)
	}
}

func TestAdminCreate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	in := CreateInput{StudentID: "stu-9", SessionID: "done", Status: StatusAbsent}

	if _, err := svc.AdminCreate(ctx, teacher, in); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher AdminCreate error = %v, want Forbidden", err)
	}

	rec, err := svc.AdminCreate(ctx, admin, in)
	if err != nil {
		t.Fatalf("AdminCreate: %v", err)
	}
	if rec.Status != StatusAbsent {
		t.Errorf("status = %q, want Absent", rec.Status)
	}
	if rec.Latitude != nil {
		t.Error("manual record without coordinates should store none")
	}

	if _, err := svc.AdminCreate(ctx, admin, in); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("duplicate AdminCreate error = %v, want Conflict", err)
	}

	bad := in
	bad.StudentID = ""
	if _, err := svc.AdminCreate(ctx, admin, bad); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("missing student error = %v, want Invalid", err)
	}
}

func TestAdminDelete(t *testing.T) {
	svc, ledger, _ := newTestService()
	ctx := context.Background()
	res, err := svc.CheckIn(ctx, student, "open", campusLat, campusLon)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if err := svc.AdminDelete(ctx, teacher, res.Record.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher delete error = %v, want Forbidden", err)
	}
	if err := svc.AdminDelete(ctx, admin, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("delete missing error = %v, want NotFound", err)
	}
	if err := svc.AdminDelete(ctx, admin, res.Record.ID); err != nil {
		t.Fatalf("AdminDelete: %v", err)
	}
	if len(ledger.records) != 0 {
		t.Error("record should be gone after delete")
	}
}

func TestListAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.List(ctx, student, Filter{}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("student List error = %v, want Forbidden", err)
	}
	if _, err := svc.List(ctx, teacher, Filter{}); err != nil {
		t.Errorf("teacher List: %v", err)
	}
	if _, err := svc.ListForSession(ctx, authz.Caller{ID: "t2", Role: authz.RoleTeacher}, "open"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("non-owner ListForSession error = %v, want Forbidden", err)
	}
	if _, err := svc.ListForSession(ctx, admin, "open"); err != nil {
		t.Errorf("admin ListForSession: %v", err)
	}
}
