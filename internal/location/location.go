// Package location manages campus geofence definitions and boundary
// verification.
package location

import (
	"time"

	"campusattend/internal/geo"
)

// Location is a circular campus boundary.
type Location struct {
	ID           string    `json:"locationId"`
	CampusName   string    `json:"campusName"`
	CenterLat    float64   `json:"centerLatitude"`
	CenterLon    float64   `json:"centerLongitude"`
	RadiusMeters int       `json:"radius"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Boundary converts the stored row into the evaluator's shape.
func (l Location) Boundary() geo.Boundary {
	return geo.Boundary{
		ID:           l.ID,
		Name:         l.CampusName,
		Center:       geo.Point{Lat: l.CenterLat, Lon: l.CenterLon},
		RadiusMeters: float64(l.RadiusMeters),
	}
}
