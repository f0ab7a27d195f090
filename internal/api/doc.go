// Package api implements the HTTP JSON API of the tracker.
//
// This package provides:
//   - vehicle and parcel endpoints used by the mobile client
//   - admin login, logout and session verification
//   - admin account management and the audit log listing
//   - health and metrics endpoints
//
// # Authorization
//
// Protected routes require an opaque bearer token issued by POST
// /api/auth/login. Reads and the position/status updates sent by devices in
// the field are public; creating and deleting items and everything under
// /api/admins and /api/audit require a token.
//
// # Errors
//
// Every error response has the shape {"error": "...", "code": "..."} and
// one of the statuses 400, 401, 404, 409 or 500. Internal errors are logged
// with the request id before the response is written.
package api
