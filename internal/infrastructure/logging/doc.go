// Package logging provides structured logging for the tracker service.
//
// It wraps log/slog so every package logs the same way: JSON in production,
// text for development, level filtering, and service/version fields on every
// entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Security
//
// Never log passwords, password hashes or session tokens.
package logging
