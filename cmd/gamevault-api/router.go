package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JustMelih/GameVault/cmd/gamevault-api/handlers"
	"github.com/JustMelih/GameVault/cmd/gamevault-api/middleware"
	"github.com/JustMelih/GameVault/internal/observability"
)

// RouterConfig holds what the router needs beyond the search service.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	AllowedOrigins []string
	Checks         map[string]handlers.Check
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, service handlers.Searcher, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler(logger, cfg.ServiceName, cfg.Checks)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	searchHandler := handlers.NewSearchHandler(logger, service)

	r.Route("/api/ai", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Post("/search", searchHandler.Search)
	})

	return r
}
