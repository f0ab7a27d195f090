package tracking

// Kind distinguishes the two tracked item types.
type Kind string

const (
	KindVehicle Kind = "vehicle"
	KindParcel  Kind = "parcel"
)

// ParseKind converts a path or topic segment into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindVehicle, KindParcel:
		return Kind(s), true
	}
	return "", false
}

// VehicleStatus is the journey state of a vehicle.
type VehicleStatus string

const (
	VehicleDeparted VehicleStatus = "DEPARTED"
	VehicleArrived  VehicleStatus = "ARRIVED"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	return s == VehicleDeparted || s == VehicleArrived
}

// ParcelStatus is the delivery state of a parcel.
type ParcelStatus string

const (
	ParcelInTransit        ParcelStatus = "IN_TRANSIT"
	ParcelBeingParked      ParcelStatus = "BEING_PARKED"
	ParcelReadyForDelivery ParcelStatus = "READY_FOR_DELIVERY"
	ParcelArrived          ParcelStatus = "ARRIVED"
)

// Valid reports whether s is a known parcel status.
func (s ParcelStatus) Valid() bool {
	switch s {
	case ParcelInTransit, ParcelBeingParked, ParcelReadyForDelivery, ParcelArrived:
		return true
	}
	return false
}

// Vehicle is a tracked bus or coach. Timestamps are milliseconds since the
// Unix epoch.
type Vehicle struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Latitude          float64       `json:"latitude"`
	Longitude         float64       `json:"longitude"`
	LastUpdateTime    int64         `json:"lastUpdateTime"`
	Status            VehicleStatus `json:"status"`
	RouteNumber       string        `json:"routeNumber"`
	DriverName        *string       `json:"driverName"`
	Speed             float64       `json:"speed"`
	Heading           float64       `json:"heading"`
	DepartureLocation *string       `json:"departureLocation"`
	ArrivalLocation   *string       `json:"arrivalLocation"`
}

// Parcel is a tracked consignment.
type Parcel struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	LastUpdateTime    int64        `json:"lastUpdateTime"`
	Status            ParcelStatus `json:"status"`
	TrackingNumber    string       `json:"trackingNumber"`
	EstimatedDelivery *int64       `json:"estimatedDelivery"`
	CarrierName       *string      `json:"carrierName"`
}

// LocationUpdate is a partial update of an item's position. Speed and
// heading apply to vehicles only and default to 0 when omitted.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// LocationPoint is one entry of an item's location history.
type LocationPoint struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Timestamp int64    `json:"timestamp"`
}
