package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
)

// timestampFormat is a fixed-width UTC timestamp so that created_at sorts
// lexically in chronological order.
const timestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// CredentialRepository defines the interface for admin credential persistence.
type CredentialRepository interface {
	// FindByUsername returns (nil, nil) when no credential has that username.
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	GetByID(ctx context.Context, id int64) (*Credential, error)
	Insert(ctx context.Context, username, passwordHash string) (*Credential, error)
	// Update renames a credential and, when passwordHash is non-empty,
	// replaces its password. Both changes commit together or not at all.
	Update(ctx context.Context, id int64, username, passwordHash string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// Delete fails with ErrLastCredential rather than leave no credentials.
	Delete(ctx context.Context, id int64) error
	// List returns credentials newest first.
	List(ctx context.Context) ([]Credential, error)
}

// SQLiteCredentialRepository implements CredentialRepository using SQLite.
type SQLiteCredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new SQLite-backed credential repository.
func NewCredentialRepository(db *sql.DB) *SQLiteCredentialRepository {
	return &SQLiteCredentialRepository{db: db}
}

const credentialColumns = "id, username, password_hash, created_at"

// FindByUsername looks up a credential by username.
func (r *SQLiteCredentialRepository) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM admins WHERE username = ?", username))
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, nil //nolint:nilnil // absence is not an error for lookups by username
	}
	return c, err
}

// GetByID retrieves a credential by its id.
func (r *SQLiteCredentialRepository) GetByID(ctx context.Context, id int64) (*Credential, error) {
	return scanCredential(r.db.QueryRowContext(ctx,
		"SELECT "+credentialColumns+" FROM admins WHERE id = ?", id))
}

// Insert creates a credential and returns it with its assigned id.
func (r *SQLiteCredentialRepository) Insert(ctx context.Context, username, passwordHash string) (*Credential, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, now.Format(timestampFormat),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("inserting admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading admin id: %w", err)
	}

	return &Credential{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// Update renames a credential and optionally replaces its password hash in
// a single transaction.
func (r *SQLiteCredentialRepository) Update(ctx context.Context, id int64, username, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	result, err := tx.ExecContext(ctx, "UPDATE admins SET username = ? WHERE id = ?", username, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("updating admin username: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return err
	}

	if passwordHash != "" {
		if _, err := tx.ExecContext(ctx, "UPDATE admins SET password_hash = ? WHERE id = ?", passwordHash, id); err != nil {
			return fmt.Errorf("updating admin password: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing admin update: %w", err)
	}
	return nil
}

// UpdatePassword replaces a credential's password hash.
func (r *SQLiteCredentialRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE admins SET password_hash = ? WHERE id = ?", passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating admin password: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a credential by id. The last remaining credential is
// never removed; the check and the delete are a single statement.
func (r *SQLiteCredentialRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM admins WHERE id = ? AND (SELECT COUNT(*) FROM admins) > 1", id)
	if err != nil {
		return fmt.Errorf("deleting admin: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrLastCredential
}

// List returns all credentials, newest first. Ties on created_at are broken
// by id so the order is stable.
func (r *SQLiteCredentialRepository) List(ctx context.Context) ([]Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+credentialColumns+" FROM admins ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	creds := []Credential{}
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admins: %w", err)
	}
	return creds, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*Credential, error) {
	var (
		c         Credential
		createdAt string
	)
	if err := s.Scan(&c.ID, &c.Username, &c.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("scanning admin: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &c, nil
}

func requireOneRow(result sql.Result) error {
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
