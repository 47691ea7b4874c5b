// Package geo evaluates campus boundary membership. It is pure: no I/O,
// no clock, no storage.
package geo

import (
	"math"

	"campusattend/internal/apperr"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Boundary is a circular geofence: a center plus a radius in meters.
type Boundary struct {
	ID           string
	Name         string
	Center       Point
	RadiusMeters float64
}

// ValidatePoint rejects coordinates outside the valid lat/lon ranges.
func ValidatePoint(p Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return apperr.Invalid("latitude %v out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return apperr.Invalid("longitude %v out of range [-180, 180]", p.Lon)
	}
	return nil
}

// DistanceMeters computes the great-circle distance between two points
// using the haversine formula. Inputs are decimal degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsWithinBoundary reports whether p falls inside b. A distance exactly
// equal to the radius counts as inside.
func IsWithinBoundary(p Point, b Boundary) bool {
	return DistanceMeters(p.Lat, p.Lon, b.Center.Lat, b.Center.Lon) <= b.RadiusMeters
}

// FindContainingBoundary returns the first boundary containing p, in
// slice order. First match wins even when a later boundary is nearer;
// callers relying on insertion order must pass boundaries in that order.
func FindContainingBoundary(p Point, boundaries []Boundary) (Boundary, bool) {
	for _, b := range boundaries {
		if IsWithinBoundary(p, b) {
			return b, true
		}
	}
	return Boundary{}, false
}
