package tracking

import (
	"context"
	"errors"
	"testing"
)

func TestVehicleRepository_UpsertAndGet(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))
	ctx := context.Background()

	v := testVehicle("bus-1")
	v.DepartureLocation = strPtr("Victoria")
	if err := repo.Upsert(ctx, v); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "bus-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != v.Name || got.Status != VehicleDeparted || got.Speed != 31.5 {
		t.Errorf("Get() = %+v, want %+v", got, v)
	}
	if got.DriverName == nil || *got.DriverName != "Sam" {
		t.Errorf("DriverName = %v, want Sam", got.DriverName)
	}
	if got.DepartureLocation == nil || *got.DepartureLocation != "Victoria" {
		t.Errorf("DepartureLocation = %v, want Victoria", got.DepartureLocation)
	}
	if got.ArrivalLocation != nil {
		t.Errorf("ArrivalLocation = %v, want nil", *got.ArrivalLocation)
	}
}

func TestVehicleRepository_UpsertOverwrites(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, testVehicle("bus-1")); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	replacement := testVehicle("bus-1")
	replacement.Name = "Replacement"
	replacement.DriverName = nil
	replacement.Status = VehicleArrived
	if err := repo.Upsert(ctx, replacement); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "bus-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Replacement" || got.Status != VehicleArrived {
		t.Errorf("Get() = %+v, want replacement", got)
	}
	if got.DriverName != nil {
		t.Errorf("DriverName = %q, want nil (no partial merge)", *got.DriverName)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() returned %d vehicles, want 1", len(all))
	}
}

func TestVehicleRepository_GetNotFound(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestVehicleRepository_ListOrder(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))
	ctx := context.Background()

	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() on empty table = %v, want empty slice", empty)
	}

	for i, id := range []string{"old", "new", "mid"} {
		v := testVehicle(id)
		v.LastUpdateTime = []int64{100, 300, 200}[i]
		if err := repo.Upsert(ctx, v); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, v := range all {
		if v.ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, v.ID, want[i])
		}
	}
}

func TestVehicleRepository_UpdateLocationOnlyTouchesPosition(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, testVehicle("bus-1")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.UpdateLocation(ctx, "bus-1", 10, 20, 5, 180, 1_900_000_000_000); err != nil {
		t.Fatalf("UpdateLocation() error = %v", err)
	}

	got, err := repo.Get(ctx, "bus-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Latitude != 10 || got.Longitude != 20 || got.Speed != 5 || got.Heading != 180 {
		t.Errorf("position = (%v, %v, %v, %v), want (10, 20, 5, 180)", got.Latitude, got.Longitude, got.Speed, got.Heading)
	}
	if got.LastUpdateTime != 1_900_000_000_000 {
		t.Errorf("LastUpdateTime = %d, want 1900000000000", got.LastUpdateTime)
	}
	if got.Name != "Bus bus-1" || got.Status != VehicleDeparted || got.RouteNumber != "42" {
		t.Errorf("non-location fields changed: %+v", got)
	}
}

func TestVehicleRepository_MutationsOnMissingRow(t *testing.T) {
	repo := NewVehicleRepository(testDB(t))
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"Update", func() error { return repo.Update(ctx, testVehicle("ghost")) }},
		{"UpdateLocation", func() error { return repo.UpdateLocation(ctx, "ghost", 1, 2, 0, 0, 1) }},
		{"UpdateStatus", func() error { return repo.UpdateStatus(ctx, "ghost", VehicleArrived) }},
		{"Delete", func() error { return repo.Delete(ctx, "ghost") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("%s() error = %v, want ErrNotFound", tt.name, err)
			}
		})
	}
}

func TestParcelRepository_CRUD(t *testing.T) {
	repo := NewParcelRepository(testDB(t))
	ctx := context.Background()

	p := testParcel("pkg-1")
	p.EstimatedDelivery = i64Ptr(1_750_000_000_000)
	p.CarrierName = strPtr("DHL")
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EstimatedDelivery == nil || *got.EstimatedDelivery != 1_750_000_000_000 {
		t.Errorf("EstimatedDelivery = %v, want 1750000000000", got.EstimatedDelivery)
	}
	if got.CarrierName == nil || *got.CarrierName != "DHL" {
		t.Errorf("CarrierName = %v, want DHL", got.CarrierName)
	}

	if err := repo.UpdateStatus(ctx, "pkg-1", ParcelReadyForDelivery); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := repo.UpdateLocation(ctx, "pkg-1", 1, 2, 3); err != nil {
		t.Fatalf("UpdateLocation() error = %v", err)
	}

	got, err = repo.Get(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != ParcelReadyForDelivery {
		t.Errorf("Status = %s, want READY_FOR_DELIVERY", got.Status)
	}
	if got.Latitude != 1 || got.Longitude != 2 || got.LastUpdateTime != 3 {
		t.Errorf("location = (%v, %v, %d), want (1, 2, 3)", got.Latitude, got.Longitude, got.LastUpdateTime)
	}
	if got.TrackingNumber != "TRK-pkg-1" {
		t.Errorf("TrackingNumber = %q, want unchanged", got.TrackingNumber)
	}

	got.CarrierName = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = repo.Get(ctx, "pkg-1") //nolint:errcheck // checked by Update above
	if got.CarrierName != nil {
		t.Errorf("CarrierName after Update = %v, want nil", *got.CarrierName)
	}

	if err := repo.Delete(ctx, "pkg-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "pkg-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestRepositories_IDUniqueAcrossKinds(t *testing.T) {
	db := testDB(t)
	vehicles := NewVehicleRepository(db)
	parcels := NewParcelRepository(db)
	ctx := context.Background()

	if err := vehicles.Upsert(ctx, testVehicle("shared")); err != nil {
		t.Fatalf("vehicle Upsert() error = %v", err)
	}
	if err := parcels.Upsert(ctx, testParcel("shared")); !errors.Is(err, ErrIDConflict) {
		t.Errorf("parcel Upsert() error = %v, want ErrIDConflict", err)
	}

	if err := parcels.Upsert(ctx, testParcel("pkg-9")); err != nil {
		t.Fatalf("parcel Upsert() error = %v", err)
	}
	if err := vehicles.Upsert(ctx, testVehicle("pkg-9")); !errors.Is(err, ErrIDConflict) {
		t.Errorf("vehicle Upsert() error = %v, want ErrIDConflict", err)
	}
}
