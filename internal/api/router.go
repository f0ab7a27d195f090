package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bustraveller/tracker-core/internal/tracking"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The split between public and protected routes is part of the API
// contract with the mobile client: devices in the field report positions
// and statuses through the public PUT/PATCH routes without a session.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Post("/auth/login", s.handleLogin)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", s.handleListVehicles)
			r.Get("/{id}", s.handleGetVehicle)
			r.Put("/{id}", s.handleUpdateVehicle)
			r.Patch("/{id}/location", s.handleUpdateLocation(tracking.KindVehicle))
			r.Patch("/{id}/status", s.handleUpdateStatus(tracking.KindVehicle))
			r.Get("/{id}/history", s.handleHistory(tracking.KindVehicle))

			r.With(s.authMiddleware).Post("/", s.handleCreateVehicle)
			r.With(s.authMiddleware).Delete("/{id}", s.handleDelete(tracking.KindVehicle))
		})

		r.Route("/parcels", func(r chi.Router) {
			r.Get("/", s.handleListParcels)
			r.Get("/{id}", s.handleGetParcel)
			r.Put("/{id}", s.handleUpdateParcel)
			r.Patch("/{id}/location", s.handleUpdateLocation(tracking.KindParcel))
			r.Patch("/{id}/status", s.handleUpdateStatus(tracking.KindParcel))
			r.Get("/{id}/history", s.handleHistory(tracking.KindParcel))

			r.With(s.authMiddleware).Post("/", s.handleCreateParcel)
			r.With(s.authMiddleware).Delete("/{id}", s.handleDelete(tracking.KindParcel))
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/verify", s.handleVerify)

			r.Delete("/items/{id}", s.handleDeleteItem)

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", s.handleListAdmins)
				r.Post("/", s.handleCreateAdmin)
				r.Put("/{id}", s.handleUpdateAdmin)
				r.Delete("/{id}", s.handleDeleteAdmin)
			})

			r.Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "BusTraveller API is running",
		"version": s.version,
	})
}
