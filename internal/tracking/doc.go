// Package tracking stores vehicles and parcels and applies their updates.
//
// Vehicles and parcels share one identifier space: an id names at most one
// item across both tables. Creates are upserts so a client can replay
// offline writes safely; a create with an existing id replaces the whole
// row.
//
// Every successful mutation is announced through an EventPublisher and
// every position change is recorded through a LocationRecorder. Both are
// optional and best-effort: their failures are logged and never fail the
// mutation.
package tracking
