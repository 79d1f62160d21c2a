/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route definitions. This
  is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. requestLog: Structured request logging (zerolog)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Auth:       Bearer token on every /api route except /api/login

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Login and token middleware
  - cmd/server/main.go: Server startup
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
	r.Use(requestLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)

		// Everything else requires a token.
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", h.ListSessions)
				r.Post("/", h.SaveSession)
				r.Get("/export", h.ExportSessions)
				r.Post("/import", h.ImportSessions)
				r.Get("/{id}", h.GetSession)
				r.Delete("/{id}", h.DeleteSession)
			})

			r.Route("/stock", func(r chi.Router) {
				r.Get("/", h.ListStock)
				r.Post("/", h.CreateEntry)
				r.Get("/history", h.ListStockHistory)
				r.Put("/{id}", h.UpdateBatch)
				r.Post("/{id}/exit", h.RecordExit)
				r.Post("/{id}/adjustment", h.RecordAdjustment)
				r.Get("/{id}/movements", h.BatchMovements)
			})

			r.Get("/movements", h.ListMovements)

			r.Route("/socios", func(r chi.Router) {
				r.Get("/", h.ListSocios)
				r.Post("/rename", h.RenameSocios)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/seed", h.SeedDemo)
			})
		})
	})

	return r
}

// requestLog emits one structured line per request.
func requestLog(log zerolog.Logger) func(http.Handler) http.Handler {
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
