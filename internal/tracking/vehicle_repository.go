package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// VehicleRepository persists vehicles.
type VehicleRepository interface {
	// Upsert inserts v or replaces every column of an existing row.
	Upsert(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, id string) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	// Update replaces an existing row; ErrNotFound when absent.
	Update(ctx context.Context, v *Vehicle) error
	UpdateLocation(ctx context.Context, id string, lat, lon, speed, heading float64, at int64) error
	UpdateStatus(ctx context.Context, id string, status VehicleStatus) error
	Delete(ctx context.Context, id string) error
}

// SQLiteVehicleRepository implements VehicleRepository using SQLite.
type SQLiteVehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository creates a SQLite-backed vehicle repository.
func NewVehicleRepository(db *sql.DB) *SQLiteVehicleRepository {
	return &SQLiteVehicleRepository{db: db}
}

const vehicleColumns = `id, name, latitude, longitude, last_update_time, status, route_number,
	driver_name, speed, heading, departure_location, arrival_location`

// Upsert writes v, replacing any vehicle with the same id. An id already
// used by a parcel fails with ErrIDConflict.
func (r *SQLiteVehicleRepository) Upsert(ctx context.Context, v *Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vehicles (`+vehicleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Latitude, v.Longitude, v.LastUpdateTime, string(v.Status), v.RouteNumber,
		nullString(v.DriverName), v.Speed, v.Heading, nullString(v.DepartureLocation), nullString(v.ArrivalLocation),
	)
	if err != nil {
		return mapWriteError("upserting vehicle", err)
	}
	return nil
}

// Get returns the vehicle with id, or ErrNotFound.
func (r *SQLiteVehicleRepository) Get(ctx context.Context, id string) (*Vehicle, error) {
	return scanVehicle(r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id))
}

// List returns all vehicles, most recently updated first.
func (r *SQLiteVehicleRepository) List(ctx context.Context) ([]Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY last_update_time DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vehicles: %w", err)
	}
	return vehicles, nil
}

// Update replaces all fields of an existing vehicle.
func (r *SQLiteVehicleRepository) Update(ctx context.Context, v *Vehicle) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET name = ?, latitude = ?, longitude = ?, last_update_time = ?, status = ?,
		 route_number = ?, driver_name = ?, speed = ?, heading = ?, departure_location = ?, arrival_location = ?
		 WHERE id = ?`,
		v.Name, v.Latitude, v.Longitude, v.LastUpdateTime, string(v.Status),
		v.RouteNumber, nullString(v.DriverName), v.Speed, v.Heading,
		nullString(v.DepartureLocation), nullString(v.ArrivalLocation),
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating vehicle: %w", err)
	}
	return requireRow(result)
}

// UpdateLocation changes only position, speed, heading and update time.
func (r *SQLiteVehicleRepository) UpdateLocation(ctx context.Context, id string, lat, lon, speed, heading float64, at int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET latitude = ?, longitude = ?, speed = ?, heading = ?, last_update_time = ? WHERE id = ?`,
		lat, lon, speed, heading, at, id,
	)
	if err != nil {
		return fmt.Errorf("updating vehicle location: %w", err)
	}
	return requireRow(result)
}

// UpdateStatus changes only the status.
func (r *SQLiteVehicleRepository) UpdateStatus(ctx context.Context, id string, status VehicleStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE vehicles SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating vehicle status: %w", err)
	}
	return requireRow(result)
}

// Delete removes a vehicle; ErrNotFound when absent.
func (r *SQLiteVehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting vehicle: %w", err)
	}
	return requireRow(result)
}

func scanVehicle(s scanner) (*Vehicle, error) {
	var (
		v                          Vehicle
		status                     string
		driver, departure, arrival sql.NullString
	)
	err := s.Scan(&v.ID, &v.Name, &v.Latitude, &v.Longitude, &v.LastUpdateTime, &status, &v.RouteNumber,
		&driver, &v.Speed, &v.Heading, &departure, &arrival)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning vehicle: %w", err)
	}

	v.Status = VehicleStatus(status)
	v.DriverName = stringPtr(driver)
	v.DepartureLocation = stringPtr(departure)
	v.ArrivalLocation = stringPtr(arrival)
	return &v, nil
}
