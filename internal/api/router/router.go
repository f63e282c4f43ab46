// Package router assembles the portal's HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carewell-health/clinic-portal/internal/http/handlers"
	httpmiddleware "github.com/carewell-health/clinic-portal/internal/http/middleware"
	"github.com/carewell-health/clinic-portal/internal/stream"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Interactions       *handlers.InteractionsHandler
	Session            *handlers.SessionHandler
	Queue              *handlers.QueueHandler
	Stream             *stream.Handler
	MetricsHandler     http.Handler
	StaffAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, and the live stream (the browser
	// WebSocket API cannot set an Authorization header).
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Stream != nil {
			public.Get("/ws/timer", cfg.Stream.HandleWebSocket)
		}
	})

	// Staff API, JWT-protected when a secret is configured.
	r.Route("/api", func(api chi.Router) {
		if cfg.StaffAuthSecret != "" {
			api.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
		}

		if cfg.Queue != nil {
			api.Get("/queue", cfg.Queue.List)
		}
		if cfg.Interactions != nil {
			// Check-in is the one write endpoint front-desk kiosks hit in
			// bursts; cap it rather than the whole API.
			api.With(httpmiddleware.RateLimit(5, 10)).Post("/interactions/checkin", cfg.Interactions.CheckIn)
			api.Post("/interactions/{interactionID}/advance", cfg.Interactions.Advance)
		}
		if cfg.Session != nil {
			api.Get("/session", cfg.Session.Get)
			api.Post("/session/start", cfg.Session.Start)
			api.Post("/session/end", cfg.Session.End)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
