package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bustraveller/tracker-core/internal/audit"
	"github.com/bustraveller/tracker-core/internal/tracking"
)

// handleListParcels returns all parcels as a JSON array.
func (s *Server) handleListParcels(w http.ResponseWriter, r *http.Request) {
	parcels, err := s.tracking.ListParcels(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindParcel))
		return
	}
	writeJSON(w, http.StatusOK, parcels)
}

// handleGetParcel returns a single parcel by ID.
func (s *Server) handleGetParcel(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracking.GetParcel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindParcel))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateParcel stores a parcel, replacing one with the same id.
func (s *Server) handleCreateParcel(w http.ResponseWriter, r *http.Request) {
	var p tracking.Parcel
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.tracking.CreateParcel(r.Context(), &p)
	if err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindParcel))
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityParcel, created.ID, usernameFromContext(r.Context()), map[string]any{
		"name":           created.Name,
		"trackingNumber": created.TrackingNumber,
	})
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateParcel replaces every field of an existing parcel.
func (s *Server) handleUpdateParcel(w http.ResponseWriter, r *http.Request) {
	var p tracking.Parcel
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.tracking.UpdateParcel(r.Context(), chi.URLParam(r, "id"), &p); err != nil {
		s.writeServiceError(w, r, err, notFoundMessage(tracking.KindParcel))
		return
	}
	writeMessage(w, http.StatusOK, "Parcel updated successfully")
}
