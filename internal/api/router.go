package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes. With no JWT secret configured the middleware
		// passes everything through, which is the bench default.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Point endpoints
			r.Route("/points", func(r chi.Router) {
				r.Get("/", s.handleListPoints)
				r.Get("/stats", s.handlePointStats)

				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.handleGetPoint)
					r.Get("/value", s.handleGetValue)
					r.Get("/priority", s.handleGetPriority)
					r.Put("/priority/{slot}", s.handleWritePriority)
					r.Delete("/priority/{slot}", s.handleRelinquishPriority)
				})
			})

			// WebSocket (token via query parameter when auth is enabled)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status. Configured dependency
// probes (database, broker) run with the request context and are reported
// per name; any failure turns the overall status to "degraded" but the
// endpoint still answers 200 so the process itself reads as alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := make(map[string]string, len(s.checks))
	for _, probe := range s.checks {
		if err := probe.Check(r.Context()); err != nil {
			checks[probe.Name] = err.Error()
			status = "degraded"
		} else {
			checks[probe.Name] = "ok"
		}
	}

	body := map[string]any{
		"status":  status,
		"version": s.version,
		"points":  s.registry.Count(),
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	writeJSON(w, http.StatusOK, body)
}
