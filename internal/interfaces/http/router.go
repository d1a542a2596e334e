// Package http assembles the HTTP API of the slot-mapping service.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/handlers"
)

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Handlers
	AnalyzeHandler  *handlers.AnalyzeHandler
	RegistryHandler *handlers.RegistryHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware, applied in this order after the chi defaults
	CORS      Middleware
	Logging   Middleware
	RateLimit Middleware

	// Infrastructure
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
	RequestTimeout   time.Duration
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	for _, mw := range []Middleware{cfg.CORS, cfg.Logging, cfg.RateLimit} {
		if mw != nil {
			r.Use(mw)
		}
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		registerAnalyzeRoutes(api, cfg.AnalyzeHandler)
		registerRegistryRoutes(api, cfg.RegistryHandler)
	})

	return r
}

func registerAnalyzeRoutes(r chi.Router, h *handlers.AnalyzeHandler) {
	if h == nil {
		return
	}
	r.Post("/analyze", h.Analyze)
	r.Post("/analyze/batch", h.AnalyzeBatch)
}

func registerRegistryRoutes(r chi.Router, h *handlers.RegistryHandler) {
	if h == nil {
		return
	}
	r.Route("/handlers", func(hr chi.Router) {
		hr.Get("/", h.List)
		hr.Put("/{id}", h.Enable)
		hr.Delete("/{id}", h.Disable)
	})
}

//Personal.AI order the ending
