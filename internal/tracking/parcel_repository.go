package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ParcelRepository persists parcels.
type ParcelRepository interface {
	// Upsert inserts p or replaces every column of an existing row.
	Upsert(ctx context.Context, p *Parcel) error
	Get(ctx context.Context, id string) (*Parcel, error)
	List(ctx context.Context) ([]Parcel, error)
	// Update replaces an existing row; ErrNotFound when absent.
	Update(ctx context.Context, p *Parcel) error
	UpdateLocation(ctx context.Context, id string, lat, lon float64, at int64) error
	UpdateStatus(ctx context.Context, id string, status ParcelStatus) error
	Delete(ctx context.Context, id string) error
}

// SQLiteParcelRepository implements ParcelRepository using SQLite.
type SQLiteParcelRepository struct {
	db *sql.DB
}

// NewParcelRepository creates a SQLite-backed parcel repository.
func NewParcelRepository(db *sql.DB) *SQLiteParcelRepository {
	return &SQLiteParcelRepository{db: db}
}

const parcelColumns = `id, name, latitude, longitude, last_update_time, status, tracking_number,
	estimated_delivery, carrier_name`

// Upsert writes p, replacing any parcel with the same id. An id already
// used by a vehicle fails with ErrIDConflict.
func (r *SQLiteParcelRepository) Upsert(ctx context.Context, p *Parcel) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO parcels (`+parcelColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Latitude, p.Longitude, p.LastUpdateTime, string(p.Status), p.TrackingNumber,
		nullInt64(p.EstimatedDelivery), nullString(p.CarrierName),
	)
	if err != nil {
		return mapWriteError("upserting parcel", err)
	}
	return nil
}

// Get returns the parcel with id, or ErrNotFound.
func (r *SQLiteParcelRepository) Get(ctx context.Context, id string) (*Parcel, error) {
	return scanParcel(r.db.QueryRowContext(ctx,
		`SELECT `+parcelColumns+` FROM parcels WHERE id = ?`, id))
}

// List returns all parcels, most recently updated first.
func (r *SQLiteParcelRepository) List(ctx context.Context) ([]Parcel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+parcelColumns+` FROM parcels ORDER BY last_update_time DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing parcels: %w", err)
	}
	defer rows.Close()

	parcels := []Parcel{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parcels: %w", err)
	}
	return parcels, nil
}

// Update replaces all fields of an existing parcel.
func (r *SQLiteParcelRepository) Update(ctx context.Context, p *Parcel) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE parcels SET name = ?, latitude = ?, longitude = ?, last_update_time = ?, status = ?,
		 tracking_number = ?, estimated_delivery = ?, carrier_name = ?
		 WHERE id = ?`,
		p.Name, p.Latitude, p.Longitude, p.LastUpdateTime, string(p.Status),
		p.TrackingNumber, nullInt64(p.EstimatedDelivery), nullString(p.CarrierName),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating parcel: %w", err)
	}
	return requireRow(result)
}

// UpdateLocation changes only position and update time.
func (r *SQLiteParcelRepository) UpdateLocation(ctx context.Context, id string, lat, lon float64, at int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE parcels SET latitude = ?, longitude = ?, last_update_time = ? WHERE id = ?`,
		lat, lon, at, id,
	)
	if err != nil {
		return fmt.Errorf("updating parcel location: %w", err)
	}
	return requireRow(result)
}

// UpdateStatus changes only the status.
func (r *SQLiteParcelRepository) UpdateStatus(ctx context.Context, id string, status ParcelStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE parcels SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating parcel status: %w", err)
	}
	return requireRow(result)
}

// Delete removes a parcel; ErrNotFound when absent.
func (r *SQLiteParcelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parcels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting parcel: %w", err)
	}
	return requireRow(result)
}

func scanParcel(s scanner) (*Parcel, error) {
	var (
		p         Parcel
		status    string
		estimated sql.NullInt64
		carrier   sql.NullString
	)
	err := s.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.LastUpdateTime, &status, &p.TrackingNumber,
		&estimated, &carrier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning parcel: %w", err)
	}

	p.Status = ParcelStatus(status)
	p.EstimatedDelivery = int64Ptr(estimated)
	p.CarrierName = stringPtr(carrier)
	return &p, nil
}
