// Package mqtt provides MQTT connectivity for the tracker.
//
// The service uses the broker in two directions:
//   - it publishes an event on bustraveller/events/{kind}/{id} whenever a
//     vehicle or parcel changes
//   - it can subscribe to bustraveller/telemetry/{kind}/{id}/location so
//     on-board devices report positions without going through HTTP
//
// The client reconnects with exponential backoff, restores subscriptions
// after a reconnect and keeps a retained status on bustraveller/system/status
// (with a Last Will for unexpected disconnects).
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.ItemEvent("vehicle", "bus-42"), event, false)
package mqtt
