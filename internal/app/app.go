// Package app wires configuration into a ready-to-use search service. Both
// the API server and the CLI build their dependencies through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JustMelih/GameVault/internal/audit"
	"github.com/JustMelih/GameVault/internal/cache"
	"github.com/JustMelih/GameVault/internal/catalog"
	"github.com/JustMelih/GameVault/internal/config"
	"github.com/JustMelih/GameVault/internal/intent"
	"github.com/JustMelih/GameVault/internal/metrics"
	"github.com/JustMelih/GameVault/internal/observability"
	"github.com/JustMelih/GameVault/internal/search"
	"github.com/JustMelih/GameVault/internal/throttle"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Cache    cache.Client
	Resolver *intent.Resolver
	Catalog  catalog.Searcher
	Throttle *throttle.Throttle
	Audit    *audit.Store
	Service  *search.Service
}

type options struct {
	noThrottle bool
	httpClient *http.Client
}

// Option customizes New.
type Option func(*options)

// WithoutThrottle disables per-client admission control. Used by the CLI,
// which has a single local caller.
func WithoutThrottle() Option {
	return func(o *options) { o.noThrottle = true }
}

// WithHTTPClient sets the client used for the LLM and catalog APIs.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New builds every component. On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts ...Option) (*App, error) {
	o := options{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = observability.Nop()
	}

	a := &App{Config: cfg, Logger: logger}
	built := false
	defer func() {
		if !built {
			_ = a.Close()
		}
	}()

	if cfg.Observability.MetricsEnabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.New(a.Registry)
	}

	var err error
	a.Cache, err = newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	extractor := intent.NewLLMExtractor(intent.LLMConfig{
		BaseURL:     cfg.Intent.BaseURL,
		APIKey:      cfg.Intent.APIKey,
		ProjectID:   cfg.Intent.ProjectID,
		Model:       cfg.Intent.Model,
		Temperature: cfg.Intent.Temperature,
		Retry: intent.RetryConfig{
			MaxRetries:     cfg.Intent.MaxRetries,
			InitialBackoff: intent.DefaultRetryConfig().InitialBackoff,
			MaxBackoff:     intent.DefaultRetryConfig().MaxBackoff,
		},
	}, o.httpClient, logger)
	if cfg.Intent.APIKey == "" {
		logger.Warn().Msg("No LLM API key configured, every query uses the keyword fallback")
	}

	a.Resolver = intent.NewResolver(a.Cache, extractor, intent.ResolverConfig{
		Timeout:  cfg.Intent.Timeout,
		CacheTTL: cfg.Intent.CacheTTL,
	}, logger, a.Metrics)

	a.Catalog = catalog.NewRAWGClient(catalog.RAWGConfig{
		BaseURL:   cfg.Catalog.BaseURL,
		APIKey:    cfg.Catalog.APIKey,
		Timeout:   cfg.Catalog.Timeout,
		UserAgent: cfg.Catalog.UserAgent,
	}, o.httpClient, logger)
	if cfg.Catalog.Breaker.Enabled {
		a.Catalog = catalog.NewBreakerClient(a.Catalog, catalog.BreakerConfig{
			MinRequests:  cfg.Catalog.Breaker.MinRequests,
			FailureRatio: cfg.Catalog.Breaker.FailureRatio,
			Interval:     cfg.Catalog.Breaker.Interval,
			OpenTimeout:  cfg.Catalog.Breaker.OpenTimeout,
		}, logger, a.Metrics)
	}

	svcOpts := []search.Option{search.WithOptions(search.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		HintLimit:    cfg.Catalog.HintLimit,
		FranchiseCap: cfg.Search.FranchiseCap,
	})}

	if cfg.Audit.Enabled {
		a.Audit, err = audit.Open(ctx, cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			return nil, err
		}
		if err := a.Audit.Migrate(ctx); err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, search.WithRecorder(a.Audit))
	}

	// A nil *Throttle must not reach the service as a non-nil interface.
	var admitter search.Admitter
	if !o.noThrottle {
		a.Throttle = throttle.New(a.Cache, cfg.Throttle.Capacity, cfg.Throttle.Window)
		admitter = a.Throttle
	}

	a.Service = search.NewService(admitter, a.Resolver, a.Catalog, logger, a.Metrics, svcOpts...)

	logger.Info().
		Str("cache", cfg.Cache.Driver).
		Bool("audit", cfg.Audit.Enabled).
		Bool("breaker", cfg.Catalog.Breaker.Enabled).
		Bool("metrics", a.Metrics != nil).
		Msg("Search service ready")

	built = true
	return a, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	switch cfg.Driver {
	case "redis":
		c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return c, nil
	case "memory", "":
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Checks returns the readiness probes of the external dependencies.
func (a *App) Checks() map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error)
	if p, ok := a.Cache.(cache.Pinger); ok {
		checks["cache"] = p.Ping
	}
	if a.Audit != nil {
		checks["audit"] = a.Audit.Ping
	}
	return checks
}

// Close releases the cache and audit connections.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close())
	}
	return errors.Join(errs...)
}
