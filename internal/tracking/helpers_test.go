package tracking

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	_ "github.com/bustraveller/tracker-core/migrations"
)

// testDB opens a temporary SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "tracking-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(n int64) *int64     { return &n }

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func testVehicle(id string) *Vehicle {
	return &Vehicle{
		ID:             id,
		Name:           "Bus " + id,
		Latitude:       51.5074,
		Longitude:      -0.1278,
		LastUpdateTime: 1_700_000_000_000,
		Status:         VehicleDeparted,
		RouteNumber:    "42",
		DriverName:     strPtr("Sam"),
		Speed:          31.5,
		Heading:        90,
	}
}

func testParcel(id string) *Parcel {
	return &Parcel{
		ID:             id,
		Name:           "Parcel " + id,
		Latitude:       48.8566,
		Longitude:      2.3522,
		LastUpdateTime: 1_700_000_000_000,
		Status:         ParcelInTransit,
		TrackingNumber: "TRK-" + id,
	}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// memoryHistory keeps recorded points in memory, newest last.
type memoryHistory struct {
	mu     sync.Mutex
	points    map[string][]LocationPoint
	err       error
	lastLimit int
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{points: make(map[string][]LocationPoint)}
}

func (h *memoryHistory) RecordLocation(_ context.Context, kind Kind, id string, p LocationPoint) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	key := string(kind) + "/" + id
	h.points[key] = append(h.points[key], p)
	return nil
}

func (h *memoryHistory) LocationHistory(_ context.Context, kind Kind, id string, since time.Time, limit int) ([]LocationPoint, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastLimit = limit
	if h.err != nil {
		return nil, h.err
	}
	stored := h.points[string(kind)+"/"+id]
	out := []LocationPoint{}
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		if stored[i].Timestamp > since.UnixMilli() {
			out = append(out, stored[i])
		}
	}
	return out, nil
}

// newTestService wires a service over a fresh database and in-memory sinks.
func newTestService(t *testing.T) (*Service, *recordingPublisher, *memoryHistory) {
	t.Helper()

	db := testDB(t)
	events := &recordingPublisher{}
	history := newMemoryHistory()
	svc := NewService(Deps{
		Vehicles: NewVehicleRepository(db),
		Parcels:  NewParcelRepository(db),
		Events:   events,
		History:  history,
		Now:      fixedClock(1_800_000_000_000),
	})
	return svc, events, history
}
