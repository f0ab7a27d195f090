package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Service authenticates admins and manages their credentials.
//
// It composes a CredentialRepository with a SessionStore. Both are injected
// so tests and alternative deployments can swap either one.
type Service struct {
	creds    CredentialRepository
	sessions SessionStore
	logger   *slog.Logger
}

// NewService creates an authentication service.
func NewService(creds CredentialRepository, sessions SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		creds:    creds,
		sessions: sessions,
		logger:   logger,
	}
}

// Sessions returns the session store used by the service.
func (s *Service) Sessions() SessionStore {
	return s.sessions
}

// Login checks username and password and issues a session.
//
// An unknown username and a wrong password both return ErrInvalidCredentials,
// and both perform a full password verification.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	cred, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up admin: %w", err)
	}

	if cred == nil {
		burnVerify(password)
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, cred.PasswordHash)
	if err != nil {
		// A corrupt stored hash is an operator problem, not a client one.
		s.logger.Error("stored password hash unreadable", "username", username, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Issue(ctx, cred.Username)
	if err != nil {
		return nil, fmt.Errorf("issuing session: %w", err)
	}
	return sess, nil
}

// Logout revokes the session for token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// Verify reports whether token belongs to a live session.
func (s *Service) Verify(ctx context.Context, token string) bool {
	sess, err := s.sessions.Validate(ctx, token)
	return err == nil && sess != nil
}

// ListAdmins returns all credentials, newest first.
func (s *Service) ListAdmins(ctx context.Context) ([]Credential, error) {
	return s.creds.List(ctx)
}

// CreateAdmin validates and stores a new credential.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*Credential, error) {
	if !IsValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return s.creds.Insert(ctx, username, hash)
}

// UpdateAdmin renames a credential and, when password is non-empty, replaces
// its password. Both changes are applied together; either one ends the
// admin's existing sessions.
func (s *Service) UpdateAdmin(ctx context.Context, id int64, username, password string) error {
	if !IsValidUsername(username) {
		return ErrInvalidUsername
	}

	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var hash string
	if password != "" {
		if hash, err = HashPassword(password); err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
	}

	if username == cred.Username && hash == "" {
		return nil
	}
	if err := s.creds.Update(ctx, id, username, hash); err != nil {
		return err
	}

	s.revokeUser(ctx, cred.Username)
	return nil
}

// SetPassword replaces the password of the named admin and ends its sessions.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}

	cred, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up admin: %w", err)
	}
	if cred == nil {
		return ErrCredentialNotFound
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, cred.ID, hash); err != nil {
		return err
	}

	s.revokeUser(ctx, cred.Username)
	return nil
}

// DeleteAdmin removes a credential and ends its sessions. The last
// remaining credential cannot be deleted.
func (s *Service) DeleteAdmin(ctx context.Context, id int64) (*Credential, error) {
	cred, err := s.creds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.creds.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.revokeUser(ctx, cred.Username)
	return cred, nil
}

// DeleteAdminByUsername is DeleteAdmin keyed by username.
func (s *Service) DeleteAdminByUsername(ctx context.Context, username string) error {
	cred, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up admin: %w", err)
	}
	if cred == nil {
		return ErrCredentialNotFound
	}
	_, err = s.DeleteAdmin(ctx, cred.ID)
	return err
}

func (s *Service) revokeUser(ctx context.Context, username string) {
	n, err := s.sessions.RevokeUser(ctx, username)
	if err != nil {
		s.logger.Error("revoking sessions", "username", username, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("sessions revoked", "username", username, "count", n)
	}
}

