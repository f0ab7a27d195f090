// Package audit records administrative actions in the audit_logs table
// and lists them for review.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the API.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entity types recorded by the API.
const (
	EntityAdmin   = "admin"
	EntityVehicle = "vehicle"
	EntityParcel  = "parcel"
	EntitySession = "session"
)

// Page size bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// timestampFormat is fixed-width so created_at sorts lexically.
const timestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// AuditLog represents a single audit trail entry.
type AuditLog struct { //nolint:revive // audit.AuditLog is clearer than audit.Log in calling code
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId,omitempty"`
	Username   string         `json:"username,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"` // milliseconds since the epoch on the wire
}

type auditLogAlias AuditLog

type auditLogJSON struct {
	*auditLogAlias
	CreatedAt int64 `json:"createdAt"`
}

// MarshalJSON implements json.Marshaler.
func (l AuditLog) MarshalJSON() ([]byte, error) {
	alias := auditLogAlias(l)
	return json.Marshal(auditLogJSON{auditLogAlias: &alias, CreatedAt: l.CreatedAt.UnixMilli()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *AuditLog) UnmarshalJSON(data []byte) error {
	w := auditLogJSON{auditLogAlias: (*auditLogAlias)(l)}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.CreatedAt = time.UnixMilli(w.CreatedAt).UTC()
	return nil
}

// Filter controls which audit logs to return.
type Filter struct {
	Action     string // optional: login, logout, create, update, delete
	EntityType string // optional: admin, vehicle, parcel, session
	EntityID   string
	Username   string
	Limit      int // default 50, max 200
	Offset     int
}

// ListResult contains the paginated audit log results.
type ListResult struct {
	Logs   []AuditLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Repository defines the interface for audit log operations.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores audit logs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new audit log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new audit log entry. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	log.CreatedAt = log.CreatedAt.UTC().Truncate(time.Microsecond)

	var detailsJSON sql.NullString
	if len(log.Details) > 0 {
		b, err := json.Marshal(log.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_type, entity_id, username, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Action, log.EntityType,
		nullableString(log.EntityID), nullableString(log.Username),
		log.Source, detailsJSON,
		log.CreatedAt.Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns audit logs matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := buildWhere(filter)

	countQuery := "SELECT COUNT(*) FROM audit_logs " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit logs: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		`SELECT id, action, entity_type, entity_id, username, source, details, created_at
		 FROM audit_logs %s ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit logs: %w", err)
	}
	defer rows.Close()

	logs := []AuditLog{}
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit logs: %w", err)
	}

	return &ListResult{
		Logs:   logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// buildWhere assembles a parameterised WHERE clause from the filter.
func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	for _, c := range []struct {
		column, value string
	}{
		{"action", filter.Action},
		{"entity_type", filter.EntityType},
		{"entity_id", filter.EntityID},
		{"username", filter.Username},
	} {
		if c.value != "" {
			conditions = append(conditions, c.column+" = ?")
			args = append(args, c.value)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanAuditLog(rows *sql.Rows) (*AuditLog, error) {
	var (
		log                             AuditLog
		entityID, username, detailsJSON sql.NullString
		createdAt                       string
	)
	if err := rows.Scan(&log.ID, &log.Action, &log.EntityType,
		&entityID, &username, &log.Source, &detailsJSON, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning audit log: %w", err)
	}

	log.EntityID = entityID.String
	log.Username = username.String
	if detailsJSON.Valid && detailsJSON.String != "" {
		var details map[string]any
		if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
			log.Details = details
		}
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log timestamp %q: %w", createdAt, err)
	}
	log.CreatedAt = t
	return &log, nil
}
