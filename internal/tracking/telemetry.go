package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bustraveller/tracker-core/internal/infrastructure/mqtt"
)

// telemetryQoS is used for device location subscriptions.
const telemetryQoS = 1

// Subscriber is the subset of the MQTT client used for telemetry.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// TelemetryIngestor applies location reports that devices publish on
// bustraveller/telemetry/{kind}/{id}/location. Payloads use the same shape
// as the location PATCH body.
type TelemetryIngestor struct {
	service *Service
	sub     Subscriber
	logger  *slog.Logger
	topic   string

	mu      sync.Mutex
	ctx     context.Context //nolint:containedctx // handlers are invoked by the MQTT client without a context
	running bool
}

// NewTelemetryIngestor creates an ingestor. It does nothing until Start.
func NewTelemetryIngestor(service *Service, sub Subscriber, logger *slog.Logger) *TelemetryIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelemetryIngestor{
		service: service,
		sub:     sub,
		logger:  logger,
		topic:   mqtt.Topics{}.AllTelemetryLocations(),
	}
}

// Start subscribes to device location topics. Updates are applied with ctx
// until Stop is called.
func (t *TelemetryIngestor) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	t.ctx = ctx
	if err := t.sub.Subscribe(t.topic, telemetryQoS, t.handle); err != nil {
		return fmt.Errorf("subscribing to telemetry: %w", err)
	}
	t.running = true
	t.logger.Info("telemetry ingestion started", "topic", t.topic)
	return nil
}

// Stop unsubscribes. Safe to call more than once.
func (t *TelemetryIngestor) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false
	if err := t.sub.Unsubscribe(t.topic); err != nil {
		return fmt.Errorf("unsubscribing from telemetry: %w", err)
	}
	return nil
}

func (t *TelemetryIngestor) baseContext() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

func (t *TelemetryIngestor) handle(topic string, payload []byte) error {
	kindSegment, id, ok := mqtt.ParseTelemetryTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected telemetry topic %q", topic)
	}
	kind, ok := ParseKind(kindSegment)
	if !ok {
		return fmt.Errorf("unknown item kind %q in topic %q", kindSegment, topic)
	}

	var u LocationUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return fmt.Errorf("decoding telemetry for %s %s: %w", kind, id, err)
	}

	if _, err := t.service.UpdateLocation(t.baseContext(), kind, id, u); err != nil {
		return fmt.Errorf("applying telemetry for %s %s: %w", kind, id, err)
	}
	return nil
}
