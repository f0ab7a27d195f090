package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/bustraveller/tracker-core/internal/infrastructure/influxdb"
)

// DefaultHistoryLimit caps history queries that give no limit.
const DefaultHistoryLimit = 100

// MaxHistoryLimit is the largest accepted history limit.
const MaxHistoryLimit = 1000

// LocationRecorder stores and reads back the position trail of items.
type LocationRecorder interface {
	// RecordLocation appends a position. Implementations may buffer.
	RecordLocation(ctx context.Context, kind Kind, id string, p LocationPoint) error

	// LocationHistory returns points newer than since, newest first.
	LocationHistory(ctx context.Context, kind Kind, id string, since time.Time, limit int) ([]LocationPoint, error)
}

// NopHistory records nothing and always returns an empty trail.
type NopHistory struct{}

// RecordLocation implements LocationRecorder.
func (NopHistory) RecordLocation(context.Context, Kind, string, LocationPoint) error { return nil }

// LocationHistory implements LocationRecorder.
func (NopHistory) LocationHistory(context.Context, Kind, string, time.Time, int) ([]LocationPoint, error) {
	return []LocationPoint{}, nil
}

// LocationStore is the subset of the InfluxDB client used for history.
type LocationStore interface {
	WriteLocation(p influxdb.LocationPoint)
	QueryLocations(ctx context.Context, kind, id string, since time.Time, limit int) ([]influxdb.LocationPoint, error)
}

// InfluxHistory keeps location history in InfluxDB.
type InfluxHistory struct {
	store LocationStore
}

// NewInfluxHistory creates a recorder over an InfluxDB client.
func NewInfluxHistory(store LocationStore) *InfluxHistory {
	return &InfluxHistory{store: store}
}

// RecordLocation implements LocationRecorder. The write is batched by the
// client, so failures surface through its error callback instead.
func (h *InfluxHistory) RecordLocation(_ context.Context, kind Kind, id string, p LocationPoint) error {
	h.store.WriteLocation(influxdb.LocationPoint{
		Kind:      string(kind),
		ID:        id,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Speed:     p.Speed,
		Heading:   p.Heading,
		Time:      time.UnixMilli(p.Timestamp).UTC(),
	})
	return nil
}

// LocationHistory implements LocationRecorder.
func (h *InfluxHistory) LocationHistory(ctx context.Context, kind Kind, id string, since time.Time, limit int) ([]LocationPoint, error) {
	rows, err := h.store.QueryLocations(ctx, string(kind), id, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying location history: %w", err)
	}

	points := make([]LocationPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, LocationPoint{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Speed:     r.Speed,
			Heading:   r.Heading,
			Timestamp: r.Time.UnixMilli(),
		})
	}
	return points, nil
}
