// Package database provides SQLite connectivity for the tracker.
//
// It owns the connection lifecycle (WAL mode, busy timeout, single writer),
// embedded schema migrations and classification of SQLite constraint errors
// so repositories can map them to domain errors.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements. The database file is created
// with mode 0600.
package database
