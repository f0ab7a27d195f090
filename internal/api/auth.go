package api

import (
	"net/http"

	"github.com/bustraveller/tracker-core/internal/audit"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// handleLogin checks admin credentials and issues a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "Username and password required")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	s.logger.Info("admin logged in", "username", sess.Username)
	s.auditLog(audit.ActionLogin, audit.EntitySession, "", sess.Username, nil)

	writeJSON(w, http.StatusCreated, loginResponse{
		Token:    sess.Token,
		Username: sess.Username,
		Message:  "Login successful",
	})
}

// handleLogout revokes the caller's session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	s.auditLog(audit.ActionLogout, audit.EntitySession, "", username, nil)
	writeMessage(w, http.StatusOK, "Logout successful")
}

// handleVerify confirms the caller's token is live. authMiddleware has
// already rejected anything else.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":    true,
		"username": usernameFromContext(r.Context()),
		"message":  "Token is valid",
	})
}
