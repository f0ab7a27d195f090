// Package influxdb stores vehicle and parcel location history in InfluxDB.
//
// Every accepted location update is written as a point in the "location"
// measurement, tagged with the item's kind and id. History is read back
// with a Flux query that pivots latitude, longitude, speed and heading into
// one record per timestamp.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLocation(influxdb.LocationPoint{Kind: "vehicle", ID: "bus-42", Latitude: 51.5, Longitude: -0.12})
//	points, err := client.QueryLocations(ctx, "vehicle", "bus-42", time.Now().Add(-24*time.Hour), 100)
//
// Writes are batched per the batch_size and flush_interval settings and never
// block the caller.
package influxdb
