/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     slog request logging (logging.Middleware)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests from configured origins

ROUTE GROUPS:
  /api/health           Liveness
  /api/rate-tables/*    Rate table management
  /api/calculate/*      Calculation (JSON, PDF)
  /api/preferences/*    Theme and rank
  /api/forms/*          Server-side form sessions
  /*                    Embedded browser client (web/static)

STATIC FILE SERVING:
  The client is embedded in the binary. sw.js is served uncached so a new
  CACHE_NAME reaches browsers on their next visit.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/web"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Rate table routes
		r.Route("/rate-tables", func(r chi.Router) {
			r.Get("/", h.ListRateTables)
			r.Post("/", h.CreateRateTable)
			r.Post("/defaults", h.SeedDefaultRateTables)
			r.Get("/{id}", h.GetRateTable)
		})

		// Calculation routes
		r.Route("/calculate", func(r chi.Router) {
			r.Post("/", h.Calculate)
			r.Post("/pdf", h.CalculatePDF)
		})

		// Preference routes
		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", h.GetPreferences)
			r.Put("/{key}", h.SetPreference)
		})

		// Form session routes
		r.Route("/forms", func(r chi.Router) {
			r.Post("/", h.CreateForm)
			r.Get("/{id}", h.GetForm)
			r.Patch("/{id}", h.UpdateFormField)
			r.Delete("/{id}", h.DeleteForm)
			r.Post("/{id}/reset", h.ResetForm)
			r.Post("/{id}/calculate", h.CalculateForm)
		})
	})

	// Serve the embedded client
	fileServer := http.FileServer(http.FS(web.Static()))
	r.Get("/sw.js", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Service-Worker-Allowed", "/")
		fileServer.ServeHTTP(w, req)
	})
	r.Get("/*", fileServer.ServeHTTP)

	return r
}
