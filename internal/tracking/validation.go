package tracking

import (
	"strings"
)

// maxIDLength bounds item ids; they appear in URLs and MQTT topics.
const maxIDLength = 128

func validateID(id string) error {
	if id == "" {
		return invalid("id", "is required")
	}
	if len(id) > maxIDLength {
		return invalid("id", "must be at most %d characters", maxIDLength)
	}
	if strings.ContainsAny(id, "/+#") {
		return invalid("id", "must not contain '/', '+' or '#'")
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

func validateVehicle(v *Vehicle) error {
	if err := validateID(v.ID); err != nil {
		return err
	}
	if strings.TrimSpace(v.Name) == "" {
		return invalid("name", "is required")
	}
	if !v.Status.Valid() {
		return invalid("status", "must be DEPARTED or ARRIVED")
	}
	if strings.TrimSpace(v.RouteNumber) == "" {
		return invalid("routeNumber", "is required")
	}
	return validateCoordinates(v.Latitude, v.Longitude)
}

func validateParcel(p *Parcel) error {
	if err := validateID(p.ID); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "is required")
	}
	if !p.Status.Valid() {
		return invalid("status", "must be IN_TRANSIT, BEING_PARKED, READY_FOR_DELIVERY or ARRIVED")
	}
	if strings.TrimSpace(p.TrackingNumber) == "" {
		return invalid("trackingNumber", "is required")
	}
	return validateCoordinates(p.Latitude, p.Longitude)
}

func validateLocation(u LocationUpdate) error {
	if u.Latitude == nil {
		return invalid("latitude", "is required")
	}
	if u.Longitude == nil {
		return invalid("longitude", "is required")
	}
	return validateCoordinates(*u.Latitude, *u.Longitude)
}
