package tracking

import (
	"database/sql"
	"fmt"

	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
)

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// mapWriteError converts constraint failures into domain errors.
func mapWriteError(op string, err error) error {
	if database.IsTriggerAbort(err) {
		return ErrIDConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireRow returns ErrNotFound when a statement touched no rows.
func requireRow(result sql.Result) error {
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}
