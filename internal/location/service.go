package location

import (
	"context"
	"math"

	"campusattend/internal/apperr"
	"campusattend/internal/authz"
	"campusattend/internal/geo"
	"campusattend/internal/store"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, l Location) (Location, error)
	Get(ctx context.Context, id string) (*Location, error)
	List(ctx context.Context) ([]Location, error)
	Update(ctx context.Context, l Location) (Location, error)
	Delete(ctx context.Context, id string) error
}

// Service owns campus location management and boundary verification.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// CreateInput is the admin payload for a new location.
type CreateInput struct {
	CampusName   string
	CenterLat    float64
	CenterLon    float64
	RadiusMeters int
}

// Create registers a new campus boundary. Admin only.
func (s *Service) Create(ctx context.Context, caller authz.Caller, in CreateInput) (Location, error) {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return Location{}, apperr.Forbidden("only admins can create locations")
	}
	if in.CampusName == "" {
		return Location{}, apperr.Invalid("campus name is required")
	}
	if in.RadiusMeters <= 0 {
		return Location{}, apperr.Invalid("radius must be a positive number of meters")
	}
	if err := geo.ValidatePoint(geo.Point{Lat: in.CenterLat, Lon: in.CenterLon}); err != nil {
		return Location{}, err
	}
	l, err := s.store.Insert(ctx, Location{
		CampusName:   in.CampusName,
		CenterLat:    in.CenterLat,
		CenterLon:    in.CenterLon,
		RadiusMeters: in.RadiusMeters,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Location{}, apperr.Conflict("a location with this name already exists")
		}
		return Location{}, apperr.Internal("create location failed", err)
	}
	return l, nil
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	CampusName   *string
	CenterLat    *float64
	CenterLon    *float64
	RadiusMeters *int
}

// Update applies a partial update. Admin only.
func (s *Service) Update(ctx context.Context, caller authz.Caller, id string, in UpdateInput) (Location, error) {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return Location{}, apperr.Forbidden("only admins can update locations")
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Location{}, apperr.Internal("fetch location failed", err)
	}
	if existing == nil {
		return Location{}, apperr.NotFound("location not found")
	}
	l := *existing
	if in.CampusName != nil {
		l.CampusName = *in.CampusName
	}
	if in.CenterLat != nil {
		l.CenterLat = *in.CenterLat
	}
	if in.CenterLon != nil {
		l.CenterLon = *in.CenterLon
	}
	if in.RadiusMeters != nil {
		l.RadiusMeters = *in.RadiusMeters
	}
	if l.CampusName == "" {
		return Location{}, apperr.Invalid("campus name is required")
	}
	if l.RadiusMeters <= 0 {
		return Location{}, apperr.Invalid("radius must be a positive number of meters")
	}
	if err := geo.ValidatePoint(geo.Point{Lat: l.CenterLat, Lon: l.CenterLon}); err != nil {
		return Location{}, err
	}
	updated, err := s.store.Update(ctx, l)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Location{}, apperr.Conflict("a location with this name already exists")
		}
		return Location{}, apperr.Internal("update location failed", err)
	}
	return updated, nil
}

// Delete removes a location. Admin only.
func (s *Service) Delete(ctx context.Context, caller authz.Caller, id string) error {
	if !authz.Allow(caller, "", authz.ActionAdmin) {
		return apperr.Forbidden("only admins can delete locations")
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return apperr.Internal("fetch location failed", err)
	}
	if existing == nil {
		return apperr.NotFound("location not found")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Internal("delete location failed", err)
	}
	return nil
}

// Get returns one location. Any authenticated caller.
func (s *Service) Get(ctx context.Context, id string) (Location, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Location{}, apperr.Internal("fetch location failed", err)
	}
	if l == nil {
		return Location{}, apperr.NotFound("location not found")
	}
	return *l, nil
}

// List returns all locations in insertion order.
func (s *Service) List(ctx context.Context) ([]Location, error) {
	res, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list locations failed", err)
	}
	return res, nil
}

// Match describes the boundary a verified point fell into.
type Match struct {
	LocationID     string  `json:"locationId"`
	CampusName     string  `json:"campusName"`
	DistanceMeters float64 `json:"distance"`
}

// VerifyResult is the outcome of a boundary check.
type VerifyResult struct {
	IsWithinBoundary bool   `json:"isWithinBoundary"`
	Location         *Match `json:"location,omitempty"`
}

// Verify tests a point against one location, or against all locations in
// insertion order when no id is given (first match wins).
func (s *Service) Verify(ctx context.Context, lat, lon float64, locationID string) (VerifyResult, error) {
	point := geo.Point{Lat: lat, Lon: lon}
	if err := geo.ValidatePoint(point); err != nil {
		return VerifyResult{}, err
	}

	var candidates []Location
	if locationID != "" {
		l, err := s.store.Get(ctx, locationID)
		if err != nil {
			return VerifyResult{}, apperr.Internal("fetch location failed", err)
		}
		if l == nil {
			return VerifyResult{}, apperr.NotFound("location not found")
		}
		candidates = []Location{*l}
	} else {
		var err error
		candidates, err = s.store.List(ctx)
		if err != nil {
			return VerifyResult{}, apperr.Internal("list locations failed", err)
		}
	}

	boundaries := make([]geo.Boundary, 0, len(candidates))
	for _, l := range candidates {
		boundaries = append(boundaries, l.Boundary())
	}
	if b, ok := geo.FindContainingBoundary(point, boundaries); ok {
		d := geo.DistanceMeters(lat, lon, b.Center.Lat, b.Center.Lon)
		return VerifyResult{
			IsWithinBoundary: true,
			Location: &Match{
				LocationID:     b.ID,
				CampusName:     b.Name,
				DistanceMeters: math.Round(d),
			},
		}, nil
	}
	return VerifyResult{IsWithinBoundary: false}, nil
}
