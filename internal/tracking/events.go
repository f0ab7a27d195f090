package tracking

import (
	"context"
	"fmt"

	"github.com/bustraveller/tracker-core/internal/infrastructure/mqtt"
)

// EventType names the change an Event announces.
type EventType string

const (
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventLocation EventType = "location"
	EventStatus   EventType = "status"
	EventDeleted  EventType = "deleted"
)

// Event announces a change to a vehicle or parcel. Item holds the stored
// entity after the change and is nil for deletions.
type Event struct {
	Type      EventType `json:"type"`
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Item      any       `json:"item,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// EventPublisher delivers tracking events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// JSONPublisher is the subset of the MQTT client used for events.
type JSONPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTPublisher sends events to bustraveller/events/{kind}/{id}.
type MQTTPublisher struct {
	client JSONPublisher
	topics mqtt.Topics
}

// NewMQTTPublisher creates a publisher over an MQTT client.
func NewMQTTPublisher(client JSONPublisher) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

// Publish implements EventPublisher. Events are not retained; a subscriber
// wanting current state reads it from the API.
func (p *MQTTPublisher) Publish(_ context.Context, e Event) error {
	if err := p.client.PublishJSON(p.topics.ItemEvent(string(e.Kind), e.ID), e, false); err != nil {
		return fmt.Errorf("publishing %s event for %s %s: %w", e.Type, e.Kind, e.ID, err)
	}
	return nil
}
