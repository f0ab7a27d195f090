package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/bustraveller/tracker-core/internal/infrastructure/database"
	_ "github.com/bustraveller/tracker-core/migrations"
)

// testDB opens a temporary SQLite database with the full schema applied.
// The database is closed when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// seedTestAdmin inserts an admin with the given password and returns it.
func seedTestAdmin(t *testing.T, repo CredentialRepository, username, password string) *Credential {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	cred, err := repo.Insert(context.Background(), username, hash)
	if err != nil {
		t.Fatalf("inserting admin %q: %v", username, err)
	}
	return cred
}
