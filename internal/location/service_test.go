package location

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
)

// fakeStore preserves insertion order, like the real List query does.
type fakeStore struct {
	order []string
	byID  map[string]Location
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]Location{}}
}

func (f *fakeStore) Insert(_ context.Context, l Location) (Location, error) {
	for _, existing := range f.byID {
		if existing.CampusName == l.CampusName {
			return Location{}, &pgconn.PgError{Code: "23505"}
		}
	}
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()
	f.byID[l.ID] = l
	f.order = append(f.order, l.ID)
	return l, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Location, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeStore) List(_ context.Context) ([]Location, error) {
	out := make([]Location, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.byID[id])
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, l Location) (Location, error) {
	f.byID[l.ID] = l
	return l, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

var (
	admin   = authz.Caller{ID: "a1", Role: authz.RoleAdmin}
	teacher = authz.Caller{ID: "t1", Role: authz.RoleTeacher}
)

func TestCreate(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	in := CreateInput{CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 200}

	l, err := svc.Create(ctx, admin, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == "" {
		t.Error("created location must have an ID")
	}

	if _, err := svc.Create(ctx, teacher, in); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher Create error = %v, want Forbidden", err)
	}
	if _, err := svc.Create(ctx, admin, in); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("duplicate name error = %v, want Conflict", err)
	}

	bad := in
	bad.CampusName = "Annex"
	bad.RadiusMeters = 0
	if _, err := svc.Create(ctx, admin, bad); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("zero radius error = %v, want Invalid", err)
	}
	bad = in
	bad.CampusName = "Annex"
	bad.CenterLat = 95
	if _, err := svc.Create(ctx, admin, bad); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("bad latitude error = %v, want Invalid", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	l, err := svc.Create(ctx, admin, CreateInput{CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 200})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	radius := 300
	updated, err := svc.Update(ctx, admin, l.ID, UpdateInput{RadiusMeters: &radius})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.RadiusMeters != 300 {
		t.Errorf("radius = %d, want 300", updated.RadiusMeters)
	}
	if updated.CampusName != "Main Campus" {
		t.Error("untouched fields must be preserved")
	}

	if _, err := svc.Update(ctx, admin, "missing", UpdateInput{RadiusMeters: &radius}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Update missing error = %v, want NotFound", err)
	}
	if _, err := svc.Update(ctx, teacher, l.ID, UpdateInput{RadiusMeters: &radius}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher Update error = %v, want Forbidden", err)
	}
	empty := ""
	if _, err := svc.Update(ctx, admin, l.ID, UpdateInput{CampusName: &empty}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("empty name error = %v, want Invalid", err)
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	l, _ := svc.Create(ctx, admin, CreateInput{CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 200})

	if err := svc.Delete(ctx, teacher, l.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("teacher Delete error = %v, want Forbidden", err)
	}
	if err := svc.Delete(ctx, admin, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Delete missing error = %v, want NotFound", err)
	}
	if err := svc.Delete(ctx, admin, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, l.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Get after delete error = %v, want NotFound", err)
	}
}

func TestVerifySingleLocation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()
	l, _ := svc.Create(ctx, admin, CreateInput{CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 200})

	res, err := svc.Verify(ctx, 12.9716, 77.5946, l.ID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.IsWithinBoundary {
		t.Error("campus center must verify as inside")
	}
	if res.Location == nil || res.Location.CampusName != "Main Campus" {
		t.Errorf("match = %+v, want Main Campus", res.Location)
	}
	if res.Location.DistanceMeters != 0 {
		t.Errorf("distance = %v, want 0", res.Location.DistanceMeters)
	}

	// ~500m away: outside, no match detail.
	res, err = svc.Verify(ctx, 12.9761, 77.5946, l.ID)
	if err != nil {
		t.Fatalf("Verify outside: %v", err)
	}
	if res.IsWithinBoundary || res.Location != nil {
		t.Errorf("result = %+v, want outside with no match", res)
	}

	if _, err := svc.Verify(ctx, 12.9716, 77.5946, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown location error = %v, want NotFound", err)
	}
	if _, err := svc.Verify(ctx, 181, 77.5946, l.ID); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("bad point error = %v, want Invalid", err)
	}
}

func TestVerifyFirstMatchWins(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	// Two overlapping boundaries around the same center; the earlier
	// insertion must win.
	first, _ := svc.Create(ctx, admin, CreateInput{CampusName: "Main Campus", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 500})
	if _, err := svc.Create(ctx, admin, CreateInput{CampusName: "Annex", CenterLat: 12.9716, CenterLon: 77.5946, RadiusMeters: 1000}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	res, err := svc.Verify(ctx, 12.9716, 77.5946, "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.IsWithinBoundary || res.Location == nil {
		t.Fatalf("result = %+v, want a match", res)
	}
	if res.Location.LocationID != first.ID {
		t.Errorf("matched %q, want the first-inserted location %q", res.Location.LocationID, first.ID)
	}
}
