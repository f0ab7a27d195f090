package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// locationMeasurement holds one row per reported position.
const locationMeasurement = "location"

// LocationPoint is a single position report for a tracked item.
type LocationPoint struct {
	Kind      string
	ID        string
	Latitude  float64
	Longitude float64
	Speed     *float64
	Heading   *float64
	Time      time.Time
}

// newLocationPoint builds the line-protocol point for p. Kind and id are
// tags so history queries filter on the index.
func newLocationPoint(p LocationPoint) *write.Point {
	fields := map[string]any{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
	}
	if p.Speed != nil {
		fields["speed"] = *p.Speed
	}
	if p.Heading != nil {
		fields["heading"] = *p.Heading
	}

	ts := p.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		locationMeasurement,
		map[string]string{"kind": p.Kind, "id": p.ID},
		fields,
		ts,
	)
}

// WriteLocation queues a position for batched writing. It is a no-op while
// disconnected.
func (c *Client) WriteLocation(p LocationPoint) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newLocationPoint(p))
}

// QueryLocations returns positions for one item recorded since the given
// time, newest first, at most limit rows.
func (c *Client) QueryLocations(ctx context.Context, kind, id string, since time.Time, limit int) ([]LocationPoint, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	result, err := c.queryAPI.Query(ctx, buildLocationQuery(c.cfg.Bucket, kind, id, since, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	points := []LocationPoint{}
	for result.Next() {
		rec := result.Record()
		p := LocationPoint{
			Kind: kind,
			ID:   id,
			Time: rec.Time(),
		}
		p.Latitude, _ = rec.ValueByKey("latitude").(float64)
		p.Longitude, _ = rec.ValueByKey("longitude").(float64)
		if v, ok := rec.ValueByKey("speed").(float64); ok {
			p.Speed = &v
		}
		if v, ok := rec.ValueByKey("heading").(float64); ok {
			p.Heading = &v
		}
		points = append(points, p)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return points, nil
}

// buildLocationQuery renders the Flux query used by QueryLocations. Fields
// are pivoted into columns so each record is one complete position.
func buildLocationQuery(bucket, kind, id string, since time.Time, limit int) string {
	return fmt.Sprintf(`from(bucket: %s)
  |> range(start: %s)
  |> filter(fn: (r) => r._measurement == %s and r.kind == %s and r.id == %s)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)`,
		fluxString(bucket),
		since.UTC().Format(time.RFC3339Nano),
		fluxString(locationMeasurement),
		fluxString(kind),
		fluxString(id),
		limit,
	)
}

// fluxString renders s as a Flux string literal. Backslashes, quotes and
// the interpolation marker are escaped.
func fluxString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}
