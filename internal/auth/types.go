package auth

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Credential is an administrator account. On the wire createdAt is
// milliseconds since the Unix epoch and the password hash is omitted.
type Credential struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type credentialJSON struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

// MarshalJSON implements json.Marshaler.
func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(credentialJSON{
		ID:        c.ID,
		Username:  c.Username,
		CreatedAt: c.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. A password hash is never read
// from JSON.
func (c *Credential) UnmarshalJSON(data []byte) error {
	var w credentialJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Credential{
		ID:        w.ID,
		Username:  w.Username,
		CreatedAt: time.UnixMilli(w.CreatedAt).UTC(),
	}
	return nil
}

// Session is an authenticated admin session.
//
// Token is the raw bearer token. It is only populated on the value returned
// by Issue; stores keep a digest of it.
type Session struct {
	Token     string     `json:"-"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the session has passed its expiry at now.
// Sessions without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Sentinel errors for auth operations.
var (
	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrCredentialNotFound = errors.New("admin not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username must be 1-64 characters of letters, digits, dots, hyphens or underscores")
	ErrPasswordRequired   = errors.New("password is required")
	ErrLastCredential     = errors.New("cannot delete the last admin")
)
