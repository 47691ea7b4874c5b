package location

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists campus locations in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const locationColumns = `location_id, campus_name, center_latitude, center_longitude, radius_meters, created_at, updated_at`

func scanLocation(row interface{ Scan(dest ...any) error }) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.CampusName, &l.CenterLat, &l.CenterLon, &l.RadiusMeters, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Insert writes a new location.
func (r *Repository) Insert(ctx context.Context, l Location) (Location, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO campus_locations (location_id, campus_name, center_latitude, center_longitude, radius_meters)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, l.ID, l.CampusName, l.CenterLat, l.CenterLon, l.RadiusMeters)
	if err := row.Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return Location{}, err
	}
	return l, nil
}

// Get returns a location by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Location, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+` FROM campus_locations WHERE location_id = $1
	`, id)
	l, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// List returns all locations in insertion order. Boundary scans rely on
// this order for the first-match policy.
func (r *Repository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM campus_locations ORDER BY created_at, location_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// Update overwrites a location's fields.
func (r *Repository) Update(ctx context.Context, l Location) (Location, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE campus_locations
		SET campus_name = $2, center_latitude = $3, center_longitude = $4, radius_meters = $5, updated_at = $6
		WHERE location_id = $1
		RETURNING `+locationColumns+`
	`, l.ID, l.CampusName, l.CenterLat, l.CenterLon, l.RadiusMeters, time.Now().UTC())
	return scanLocation(row)
}

// Delete removes a location.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM campus_locations WHERE location_id = $1`, id)
	return err
}
