package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	_ "github.com/bustraveller/tracker-core/migrations"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "audit-test.db"),
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

func TestCreate_GeneratesIDAndTimestamp(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	log := &AuditLog{Action: ActionLogin, EntityType: EntitySession, Username: "admin", Source: "api"}
	if err := repo.Create(context.Background(), log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if log.CreatedAt.IsZero() {
		t.Error("Create() did not assign CreatedAt")
	}
}

func TestList_OrderAndFilter(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*AuditLog{
		{Action: ActionCreate, EntityType: EntityVehicle, EntityID: "bus-1", Username: "admin", Source: "api", CreatedAt: base},
		{Action: ActionDelete, EntityType: EntityVehicle, EntityID: "bus-1", Username: "ops", Source: "api", CreatedAt: base.Add(time.Minute)},
		{Action: ActionCreate, EntityType: EntityParcel, EntityID: "pkg-1", Username: "admin", Source: "api",
			Details: map[string]any{"name": "Parcel"}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Logs) != 3 {
		t.Fatalf("List() total=%d len=%d, want 3", all.Total, len(all.Logs))
	}
	if all.Logs[0].EntityID != "pkg-1" || all.Logs[2].Action != ActionCreate {
		t.Errorf("List() not newest first: %+v", all.Logs)
	}
	if all.Logs[0].Details["name"] != "Parcel" {
		t.Errorf("Details = %v, want name=Parcel", all.Logs[0].Details)
	}
	if all.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, DefaultLimit)
	}

	byUser, err := repo.List(ctx, Filter{Username: "admin", EntityType: EntityVehicle})
	if err != nil {
		t.Fatalf("List(filter) error = %v", err)
	}
	if byUser.Total != 1 || byUser.Logs[0].EntityID != "bus-1" || byUser.Logs[0].Action != ActionCreate {
		t.Errorf("List(filter) = %+v", byUser.Logs)
	}

	paged, err := repo.List(ctx, Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List(page) error = %v", err)
	}
	if paged.Total != 3 || len(paged.Logs) != 1 || paged.Logs[0].Action != ActionDelete {
		t.Errorf("List(page) = %+v", paged)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	res, err := repo.List(context.Background(), Filter{Limit: 5000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != MaxLimit || res.Offset != 0 {
		t.Errorf("List() limit=%d offset=%d, want %d/0", res.Limit, res.Offset, MaxLimit)
	}
	if res.Logs == nil {
		t.Error("List() returned nil logs, want empty slice")
	}
}

func TestAuditLog_JSONCreatedAtMillis(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 5_000_000, time.UTC)
	entry := AuditLog{ID: "a1", Action: ActionLogin, EntityType: EntitySession, Username: "admin", Source: "api", CreatedAt: created}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got, ok := raw["createdAt"].(float64); !ok || int64(got) != created.UnixMilli() {
		t.Errorf("createdAt = %#v, want %d", raw["createdAt"], created.UnixMilli())
	}
	if raw["entityType"] != EntitySession || raw["username"] != "admin" {
		t.Errorf("fields = %v", raw)
	}

	var back AuditLog
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.CreatedAt.Equal(created) || back.Action != ActionLogin {
		t.Errorf("round trip = %+v", back)
	}
}
