package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bustraveller/tracker-core/internal/audit"
	"github.com/bustraveller/tracker-core/internal/tracking"
)

// Handlers in this file serve both item kinds.

type statusRequest struct {
	Status string `json:"status"`
}

func notFoundMessage(kind tracking.Kind) string {
	switch kind {
	case tracking.KindVehicle:
		return "Vehicle not found"
	case tracking.KindParcel:
		return "Parcel not found"
	}
	return "Item not found"
}

func deletedMessage(kind tracking.Kind) string {
	switch kind {
	case tracking.KindVehicle:
		return "Vehicle deleted successfully"
	case tracking.KindParcel:
		return "Parcel deleted successfully"
	}
	return "Item deleted successfully"
}

func auditEntity(kind tracking.Kind) string {
	if kind == tracking.KindParcel {
		return audit.EntityParcel
	}
	return audit.EntityVehicle
}

// handleUpdateLocation moves an item. Only position (and for vehicles
// speed and heading) change; the server stamps the update time.
func (s *Server) handleUpdateLocation(kind tracking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u tracking.LocationUpdate
		if err := decodeJSON(r, &u); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if kind == tracking.KindParcel {
			u.Speed, u.Heading = nil, nil
		}

		if _, err := s.tracking.UpdateLocation(r.Context(), kind, chi.URLParam(r, "id"), u); err != nil {
			s.writeServiceError(w, r, err, notFoundMessage(kind))
			return
		}
		writeMessage(w, http.StatusOK, "Location updated successfully")
	}
}

// handleUpdateStatus changes only the status of an item.
func (s *Server) handleUpdateStatus(kind tracking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, err.Error())
			return
		}

		if err := s.tracking.UpdateStatus(r.Context(), kind, chi.URLParam(r, "id"), req.Status); err != nil {
			s.writeServiceError(w, r, err, notFoundMessage(kind))
			return
		}
		writeMessage(w, http.StatusOK, "Status updated successfully")
	}
}

// handleHistory returns the recorded positions of an item, newest first.
//
// Query parameters:
//   - since: only points after this time, in Unix milliseconds (default: 24h ago)
//   - limit: max points (default 100, values above 1000 are capped)
func (s *Server) handleHistory(kind tracking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		since := time.Now().Add(-24 * time.Hour)
		if v := q.Get("since"); v != "" {
			ms, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeBadRequest(w, "since must be a Unix timestamp in milliseconds")
				return
			}
			since = time.UnixMilli(ms)
		}

		limit := tracking.DefaultHistoryLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeBadRequest(w, "limit must be a positive integer")
				return
			}
			limit = n
		}

		points, err := s.tracking.History(r.Context(), kind, chi.URLParam(r, "id"), since, limit)
		if err != nil {
			s.writeServiceError(w, r, err, notFoundMessage(kind))
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

// handleDelete removes an item of a known kind.
func (s *Server) handleDelete(kind tracking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.tracking.Delete(r.Context(), kind, id); err != nil {
			s.writeServiceError(w, r, err, notFoundMessage(kind))
			return
		}

		s.auditLog(audit.ActionDelete, auditEntity(kind), id, usernameFromContext(r.Context()), nil)
		writeMessage(w, http.StatusOK, deletedMessage(kind))
	}
}

// handleDeleteItem removes an id from whichever collection holds it, for
// clients that do not know the item's kind.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	kind, err := s.tracking.DeleteItem(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Item not found")
		return
	}

	s.auditLog(audit.ActionDelete, auditEntity(kind), id, usernameFromContext(r.Context()), nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": deletedMessage(kind),
		"kind":    kind,
	})
}
