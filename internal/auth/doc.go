// Package auth provides admin authentication for the tracker.
//
// It has three parts:
//   - CredentialRepository stores admin usernames and Argon2id password hashes
//   - SessionStore holds opaque bearer tokens issued on login
//   - Service composes the two for login, logout, verify and admin management
//
// Tokens are 256 bits from crypto/rand, hex encoded, and are held only as
// SHA-256 digests. They are not self-describing: a token is valid exactly
// while the store holds it, so logout and password changes take effect
// immediately.
package auth
