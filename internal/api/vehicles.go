package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bustraveller/tracker-core/internal/audit"
	"github.com/bustraveller/tracker-core/internal/tracking"
)

// handleListVehicles returns all vehicles as a JSON array.
func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.tracking.ListVehicles(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindVehicle))
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// handleGetVehicle returns a single vehicle by ID.
func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracking.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindVehicle))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleCreateVehicle stores a vehicle, replacing one with the same id.
func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v tracking.Vehicle
	if err := decodeJSON(r, &v); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.tracking.CreateVehicle(r.Context(), &v)
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindVehicle))
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityVehicle, created.ID, usernameFromContext(r.Context()), map[string]any{
		"name": created.Name,
	})
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateVehicle replaces every field of an existing vehicle.
func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var v tracking.Vehicle
	if err := decodeJSON(r, &v); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.tracking.UpdateVehicle(r.Context(), chi.URLParam(r, "id"), &v); err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindVehicle))
		return
	}
	writeMessage(w, http.StatusOK, "Vehicle updated successfully")
}
