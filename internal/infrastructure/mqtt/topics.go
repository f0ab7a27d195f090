package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every tracker topic.
const TopicPrefix = "bustraveller"

// Topics builds tracker MQTT topic names.
//
//	topics := mqtt.Topics{}
//	topics.ItemEvent("vehicle", "bus-42")
//	// Returns: "bustraveller/events/vehicle/bus-42"
type Topics struct{}

// ItemEvent is where changes to a tracked item are announced.
//
// Example: bustraveller/events/parcel/pkg-1001
func (Topics) ItemEvent(kind, id string) string {
	return fmt.Sprintf("%s/events/%s/%s", TopicPrefix, kind, id)
}

// TelemetryLocation is where a device reports its own position.
//
// Example: bustraveller/telemetry/vehicle/bus-42/location
func (Topics) TelemetryLocation(kind, id string) string {
	return fmt.Sprintf("%s/telemetry/%s/%s/location", TopicPrefix, kind, id)
}

// SystemStatus carries the retained online/offline status of the service.
//
// Example: bustraveller/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllItemEvents matches every item event.
//
// Pattern: bustraveller/events/+/+
func (Topics) AllItemEvents() string {
	return TopicPrefix + "/events/+/+"
}

// AllTelemetryLocations matches every device location report.
//
// Pattern: bustraveller/telemetry/+/+/location
func (Topics) AllTelemetryLocations() string {
	return TopicPrefix + "/telemetry/+/+/location"
}

// AllTopics matches all tracker traffic.
//
// Pattern: bustraveller/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// ParseTelemetryTopic extracts kind and id from a topic built by
// TelemetryLocation. ok is false for any other shape.
func ParseTelemetryTopic(topic string) (kind, id string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != "telemetry" || parts[4] != "location" {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
