package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Deps holds the collaborators of a Service. Events, History, Logger and
// Now are optional.
type Deps struct {
	Vehicles VehicleRepository
	Parcels  ParcelRepository
	Events   EventPublisher
	History  LocationRecorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service implements the vehicle and parcel operations on top of the
// repositories and fans successful changes out to the event and history
// sinks.
//
// Sink failures are logged and never returned; the repositories are the
// record of truth.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Concurrent writes to one id
//     are last-write-wins.
type Service struct {
	vehicles VehicleRepository
	parcels  ParcelRepository
	events   EventPublisher
	history  LocationRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a tracking service.
func NewService(deps Deps) *Service {
	s := &Service{
		vehicles: deps.Vehicles,
		parcels:  deps.Parcels,
		events:   deps.Events,
		history:  deps.History,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.history == nil {
		s.history = NopHistory{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

// ListVehicles returns every vehicle, most recently updated first.
func (s *Service) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	return s.vehicles.List(ctx)
}

// GetVehicle returns one vehicle or ErrNotFound.
func (s *Service) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	return s.vehicles.Get(ctx, id)
}

// CreateVehicle stores v, replacing any vehicle with the same id. An empty
// id is assigned a UUID and a zero LastUpdateTime is set to now.
func (s *Service) CreateVehicle(ctx context.Context, v *Vehicle) (*Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.LastUpdateTime == 0 {
		v.LastUpdateTime = s.nowMillis()
	}
	if err := validateVehicle(v); err != nil {
		return nil, err
	}

	if err := s.vehicles.Upsert(ctx, v); err != nil {
		return nil, err
	}

	s.publish(ctx, EventCreated, KindVehicle, v.ID, v)
	s.record(ctx, KindVehicle, v.ID, vehiclePoint(v))
	return v, nil
}

// UpdateVehicle replaces every field of the vehicle with id. The id in the
// path wins over v.ID.
func (s *Service) UpdateVehicle(ctx context.Context, id string, v *Vehicle) error {
	v.ID = id
	if v.LastUpdateTime == 0 {
		v.LastUpdateTime = s.nowMillis()
	}
	if err := validateVehicle(v); err != nil {
		return err
	}

	if err := s.vehicles.Update(ctx, v); err != nil {
		return err
	}

	s.publish(ctx, EventUpdated, KindVehicle, id, v)
	s.record(ctx, KindVehicle, id, vehiclePoint(v))
	return nil
}

// ListParcels returns every parcel, most recently updated first.
func (s *Service) ListParcels(ctx context.Context) ([]Parcel, error) {
	return s.parcels.List(ctx)
}

// GetParcel returns one parcel or ErrNotFound.
func (s *Service) GetParcel(ctx context.Context, id string) (*Parcel, error) {
	return s.parcels.Get(ctx, id)
}

// CreateParcel stores p, replacing any parcel with the same id.
func (s *Service) CreateParcel(ctx context.Context, p *Parcel) (*Parcel, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.LastUpdateTime == 0 {
		p.LastUpdateTime = s.nowMillis()
	}
	if err := validateParcel(p); err != nil {
		return nil, err
	}

	if err := s.parcels.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, EventCreated, KindParcel, p.ID, p)
	s.record(ctx, KindParcel, p.ID, LocationPoint{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: p.LastUpdateTime})
	return p, nil
}

// UpdateParcel replaces every field of the parcel with id.
func (s *Service) UpdateParcel(ctx context.Context, id string, p *Parcel) error {
	p.ID = id
	if p.LastUpdateTime == 0 {
		p.LastUpdateTime = s.nowMillis()
	}
	if err := validateParcel(p); err != nil {
		return err
	}

	if err := s.parcels.Update(ctx, p); err != nil {
		return err
	}

	s.publish(ctx, EventUpdated, KindParcel, id, p)
	s.record(ctx, KindParcel, id, LocationPoint{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: p.LastUpdateTime})
	return nil
}

// UpdateLocation moves an item and stamps it with the server time. For
// vehicles an omitted speed or heading is stored as 0; parcels ignore both.
func (s *Service) UpdateLocation(ctx context.Context, kind Kind, id string, u LocationUpdate) (*LocationPoint, error) {
	if err := validateLocation(u); err != nil {
		return nil, err
	}

	point := LocationPoint{
		Latitude:  *u.Latitude,
		Longitude: *u.Longitude,
		Timestamp: s.nowMillis(),
	}

	var err error
	switch kind {
	case KindVehicle:
		speed, heading := valueOrZero(u.Speed), valueOrZero(u.Heading)
		point.Speed, point.Heading = &speed, &heading
		err = s.vehicles.UpdateLocation(ctx, id, point.Latitude, point.Longitude, speed, heading, point.Timestamp)
	case KindParcel:
		err = s.parcels.UpdateLocation(ctx, id, point.Latitude, point.Longitude, point.Timestamp)
	default:
		return nil, invalid("kind", "unknown item kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventLocation, kind, id, point)
	s.record(ctx, kind, id, point)
	return &point, nil
}

// UpdateStatus changes only the status of an item.
func (s *Service) UpdateStatus(ctx context.Context, kind Kind, id, status string) error {
	var err error
	switch kind {
	case KindVehicle:
		vs := VehicleStatus(status)
		if !vs.Valid() {
			return invalid("status", "must be DEPARTED or ARRIVED")
		}
		err = s.vehicles.UpdateStatus(ctx, id, vs)
	case KindParcel:
		ps := ParcelStatus(status)
		if !ps.Valid() {
			return invalid("status", "must be IN_TRANSIT, BEING_PARKED, READY_FOR_DELIVERY or ARRIVED")
		}
		err = s.parcels.UpdateStatus(ctx, id, ps)
	default:
		return invalid("kind", "unknown item kind %q", kind)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, EventStatus, kind, id, map[string]string{"status": status})
	return nil
}

// Delete removes an item of the given kind.
func (s *Service) Delete(ctx context.Context, kind Kind, id string) error {
	var err error
	switch kind {
	case KindVehicle:
		err = s.vehicles.Delete(ctx, id)
	case KindParcel:
		err = s.parcels.Delete(ctx, id)
	default:
		return invalid("kind", "unknown item kind %q", kind)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, EventDeleted, kind, id, nil)
	return nil
}

// DeleteItem removes id from whichever store holds it, trying vehicles
// first, and reports which kind it was. ErrNotFound means neither store
// held the id and nothing was changed.
func (s *Service) DeleteItem(ctx context.Context, id string) (Kind, error) {
	for _, kind := range []Kind{KindVehicle, KindParcel} {
		err := s.Delete(ctx, kind, id)
		if err == nil {
			return kind, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", ErrNotFound
}

// History returns the recorded positions of an item newer than since,
// newest first. A limit of zero or less means DefaultHistoryLimit and a
// larger one than MaxHistoryLimit is capped. ErrNotFound when the item does
// not exist.
func (s *Service) History(ctx context.Context, kind Kind, id string, since time.Time, limit int) ([]LocationPoint, error) {
	var err error
	switch kind {
	case KindVehicle:
		_, err = s.vehicles.Get(ctx, id)
	case KindParcel:
		_, err = s.parcels.Get(ctx, id)
	default:
		return nil, invalid("kind", "unknown item kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	points, err := s.history.LocationHistory(ctx, kind, id, since, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s %s: %w", kind, id, err)
	}
	return points, nil
}

func (s *Service) publish(ctx context.Context, typ EventType, kind Kind, id string, item any) {
	e := Event{Type: typ, Kind: kind, ID: id, Item: item, Timestamp: s.nowMillis()}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("tracking event not delivered",
			"type", typ, "kind", kind, "id", id, "error", err)
	}
}

func (s *Service) record(ctx context.Context, kind Kind, id string, p LocationPoint) {
	if err := s.history.RecordLocation(ctx, kind, id, p); err != nil {
		s.logger.Warn("location history not recorded", "kind", kind, "id", id, "error", err)
	}
}

func vehiclePoint(v *Vehicle) LocationPoint {
	speed, heading := v.Speed, v.Heading
	return LocationPoint{
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Speed:     &speed,
		Heading:   &heading,
		Timestamp: v.LastUpdateTime,
	}
}

func valueOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
