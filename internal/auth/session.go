package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// tokenBytes is the amount of randomness in a session token (256 bits).
const tokenBytes = 32

// SessionStore holds live admin sessions.
//
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Issue creates a session for username and returns it with its raw token.
	Issue(ctx context.Context, username string) (*Session, error)

	// Validate returns the session for token, or (nil, nil) when the token
	// is unknown, revoked or expired.
	Validate(ctx context.Context, token string) (*Session, error)

	// Revoke destroys the session for token. Revoking an unknown token is
	// not an error.
	Revoke(ctx context.Context, token string) error

	// RevokeUser destroys every session belonging to username and returns
	// how many were removed.
	RevokeUser(ctx context.Context, username string) (int, error)

	// Count returns the number of live sessions.
	Count() int
}

// HashToken computes the SHA-256 digest of a raw token. Stores key sessions
// by digest so raw tokens are never held at rest.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// GenerateToken returns a new random session token, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MemorySessionStore is an in-process SessionStore.
//
// Sessions live until revoked or, when a TTL is set, until they expire.
// Expired sessions are rejected by Validate immediately and removed from
// memory by Run.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session // keyed by HashToken(token)
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store. A ttl of zero means
// sessions never expire.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue creates a session for username.
func (s *MemorySessionStore) Issue(_ context.Context, username string) (*Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := Session{
		Username:  username,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		sess.ExpiresAt = &exp
	}

	s.mu.Lock()
	s.sessions[HashToken(token)] = sess
	s.mu.Unlock()

	sess.Token = token
	return &sess, nil
}

// Validate looks up the session for token.
func (s *MemorySessionStore) Validate(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil //nolint:nilnil // absence is not an error
	}

	s.mu.RLock()
	sess, ok := s.sessions[HashToken(token)]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.now()) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	return &sess, nil
}

// Revoke removes the session for token if present.
func (s *MemorySessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, HashToken(token))
	s.mu.Unlock()
	return nil
}

// RevokeUser removes every session owned by username.
func (s *MemorySessionStore) RevokeUser(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if sess.Username == username {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored sessions, including expired ones not
// yet swept.
func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
// It returns immediately when the store has no TTL.
func (s *MemorySessionStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
