package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carelink/escort-platform/internal/http/handlers"
	httpmiddleware "github.com/carelink/escort-platform/internal/http/middleware"
	obsmetrics "github.com/carelink/escort-platform/internal/observability/metrics"
	"github.com/carelink/escort-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	EscortHandler      *handlers.EscortHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	HTTPMetrics        *obsmetrics.HTTPMetrics
	CORSAllowedOrigins []string

	// Requests/sec per client IP for submission endpoints; 0 disables.
	SubmitRateLimit float64
	SubmitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health check, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.EscortHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Escort submission and lookup routes
	r.Route("/escort", func(escort chi.Router) {
		if cfg.SubmitRateLimit > 0 {
			escort.Use(httpmiddleware.RateLimit(cfg.SubmitRateLimit, cfg.SubmitBurst))
		}
		escort.Post("/requests", cfg.EscortHandler.SubmitRequest)
		escort.Get("/requests/{id}", cfg.EscortHandler.GetRequest)
		escort.Post("/availability", cfg.EscortHandler.SubmitAvailability)
		escort.Get("/availability/{id}", cfg.EscortHandler.GetAvailability)
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/escort/requests", cfg.EscortHandler.ListRequests)
			admin.Get("/escort/availability", cfg.EscortHandler.ListAvailability)
		})
	}

	return r
}
