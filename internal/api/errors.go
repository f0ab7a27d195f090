package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bustraveller/tracker-core/internal/auth"
	"github.com/bustraveller/tracker-core/internal/tracking"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeMessage writes {"message": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeServiceError maps an error from the auth or tracking services to
// its HTTP status. notFound is the message used for a 404; anything
// unrecognised is logged with the request id and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *tracking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, verr.Error())
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, "Invalid username or password")
	case errors.Is(err, tracking.ErrNotFound), errors.Is(err, auth.ErrCredentialNotFound):
		writeNotFound(w, notFound)
	case errors.Is(err, auth.ErrUsernameExists):
		writeConflict(w, "Username already exists")
	case errors.Is(err, auth.ErrLastCredential):
		writeConflict(w, "Cannot delete the last admin")
	case errors.Is(err, tracking.ErrIDConflict):
		writeConflict(w, "ID already used by another item")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeInternalError(w, "Internal server error")
	}
}
