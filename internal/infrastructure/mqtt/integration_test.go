//go:build integration

package mqtt

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// Integration tests need a broker at 127.0.0.1:1883:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func connectTestClient(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	client := connectTestClient(t, "bustraveller-it-connect")

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() to a closed port should fail")
	}
}

func TestIntegration_TelemetryRoundtrip(t *testing.T) {
	client := connectTestClient(t, "bustraveller-it-roundtrip")

	received := make(chan string, 1)
	err := client.Subscribe(Topics{}.AllTelemetryLocations(), 1, func(topic string, _ []byte) error {
		_, id, ok := ParseTelemetryTopic(topic)
		if ok {
			received <- id
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(Topics{}.AllTelemetryLocations()) {
		t.Error("subscription not tracked")
	}

	if err := client.PublishJSON(Topics{}.TelemetryLocation("vehicle", "bus-it"), map[string]float64{"latitude": 1, "longitude": 2}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case id := <-received:
		if id != "bus-it" {
			t.Errorf("id = %q, want bus-it", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("telemetry message not received")
	}

	if err := client.Unsubscribe(Topics{}.AllTelemetryLocations()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "bustraveller-it-callback"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var calls atomic.Int32
	client.SetOnConnect(func() { calls.Add(1) })

	// Calling the handler directly stands in for a broker-driven reconnect.
	client.handleConnect()
	if calls.Load() != 1 {
		t.Errorf("onConnect calls = %d, want 1", calls.Load())
	}
}
