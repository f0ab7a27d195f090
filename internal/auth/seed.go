package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// SeedDefaultAdmin creates the bootstrap admin when no credential with that
// username exists. It returns true when a credential was created.
func SeedDefaultAdmin(ctx context.Context, creds CredentialRepository, username, password string, logger *slog.Logger) (bool, error) {
	existing, err := creds.FindByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("checking bootstrap admin: %w", err)
	}
	if existing != nil {
		logger.Debug("bootstrap admin exists, skipping seed", "username", username)
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hashing bootstrap password: %w", err)
	}

	if _, err := creds.Insert(ctx, username, hash); err != nil {
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}

	logger.Warn("bootstrap admin created",
		"username", username,
		"action_required", "change this password",
	)
	return true, nil
}
