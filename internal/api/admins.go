package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bustraveller/tracker-core/internal/audit"
)

const adminNotFound = "Admin not found"

type adminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createAdminResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// handleListAdmins returns every admin account, newest first.
func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.auth.ListAdmins(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, adminNotFound)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

// handleCreateAdmin adds an admin account.
func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "Username and password are required")
		return
	}

	cred, err := s.auth.CreateAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, adminNotFound)
		return
	}

	actor := usernameFromContext(r.Context())
	s.logger.Info("admin created", "username", cred.Username, "created_by", actor)
	s.auditLog(audit.ActionCreate, audit.EntityAdmin, strconv.FormatInt(cred.ID, 10), actor, map[string]any{
		"username": cred.Username,
	})

	writeJSON(w, http.StatusCreated, createAdminResponse{
		ID:       cred.ID,
		Username: cred.Username,
		Message:  "Admin created successfully",
	})
}

// handleUpdateAdmin renames an admin and optionally resets its password.
func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := adminIDParam(w, r)
	if !ok {
		return
	}

	var req adminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Username == "" {
		writeBadRequest(w, "Username is required")
		return
	}

	if err := s.auth.UpdateAdmin(r.Context(), id, req.Username, req.Password); err != nil {
		s.writeServiceError(w, r, err, adminNotFound)
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityAdmin, strconv.FormatInt(id, 10), usernameFromContext(r.Context()), map[string]any{
		"username":         req.Username,
		"password_changed": req.Password != "",
	})
	writeMessage(w, http.StatusOK, "Admin updated successfully")
}

// handleDeleteAdmin removes an admin and ends its sessions.
func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := adminIDParam(w, r)
	if !ok {
		return
	}

	cred, err := s.auth.DeleteAdmin(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, adminNotFound)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityAdmin, strconv.FormatInt(id, 10), usernameFromContext(r.Context()), map[string]any{
		"username": cred.Username,
	})
	writeMessage(w, http.StatusOK, "Admin deleted successfully")
}

// adminIDParam parses the {id} path segment. A malformed id cannot name
// an admin, so it is reported as not found.
func adminIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeNotFound(w, adminNotFound)
		return 0, false
	}
	return id, true
}
