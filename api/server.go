/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zerolog:    Structured request logging
  4. CORS:       Cross-origin requests for internal tooling

ROUTE GROUPS:
  /api/allocations/*  Admission, inspection, deletion
  /api/employees/*    Directory reads + per-employee allocation views
  /api/clients/*      Directory reads + per-client allocation views
  /api/projects/*     Directory reads + per-project allocation views

SECURITY NOTE:
  No authentication middleware. The service is expected to sit behind an
  internal gateway.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", h.CreateAllocation)
			r.Get("/{id}", h.GetAllocation)
			r.Put("/{id}", h.UpdateAllocation)
			r.Delete("/{id}", h.DeleteAllocation)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/allocations", h.ListEmployeeAllocations)
			r.Get("/{id}/capacity", h.GetCapacity)
			r.Get("/{id}/conflicts", h.GetConflicts)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Get("/{id}", h.GetClient)
			r.Get("/{id}/projects", h.ListClientProjects)
			r.Get("/{id}/allocations", h.ListClientAllocations)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Get("/{id}", h.GetProject)
			r.Get("/{id}/allocations", h.ListProjectAllocations)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
