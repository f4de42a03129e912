package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JustMelih/GameVault/internal/cache"
	"github.com/JustMelih/GameVault/internal/metrics"
	"github.com/JustMelih/GameVault/internal/observability"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Intent Intent
	// Source is one of metrics.SourceCache, SourceExtractor or SourceFallback.
	Source string
	// Err is the extractor failure that triggered the fallback, if any.
	Err error
}

// UsedFallback reports whether the intent came from the keyword fallback.
func (r Resolution) UsedFallback() bool {
	return r.Source == metrics.SourceFallback
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Resolver produces an Intent for a query from the cache, the extractor or
// the keyword fallback, in that order. It never fails.
type Resolver struct {
	cache     cache.Client
	extractor Extractor
	timeout   time.Duration
	ttl       time.Duration
	logger    *observability.Logger
	metrics   *metrics.Metrics
}

// NewResolver creates a Resolver.
func NewResolver(c cache.Client, extractor Extractor, cfg ResolverConfig, logger *observability.Logger, m *metrics.Metrics) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Resolver{
		cache:     c,
		extractor: extractor,
		timeout:   cfg.Timeout,
		ttl:       cfg.CacheTTL,
		logger:    logger.WithComponent("intent_resolver"),
		metrics:   m,
	}
}

// Resolve returns the intent for query. Cached intents are returned as
// stored; freshly extracted or fallback intents are enriched first. Only
// extractor results are cached.
func (r *Resolver) Resolve(ctx context.Context, query string) Resolution {
	log := r.logger.WithContext(ctx)
	key := CacheKey(query)

	var cached Intent
	err := cache.GetJSON(ctx, r.cache, key, &cached)
	switch {
	case err == nil:
		r.metrics.IntentResolved(metrics.SourceCache)
		return Resolution{Intent: cached.Normalize(), Source: metrics.SourceCache}
	case !errors.Is(err, cache.ErrCacheMiss):
		log.Warn().Str("query", query).Err(err).Msg("Intent cache read failed")
	}

	res := Resolution{Source: metrics.SourceExtractor}
	extracted, err := r.extract(ctx, query)
	if err != nil {
		log.Warn().Str("query", query).Err(err).Msg("Intent extractor failed, using keyword fallback")
		res.Source = metrics.SourceFallback
		res.Err = err
		extracted = Fallback(query)
	}

	res.Intent = Enrich(query, extracted.Normalize())
	if res.UsedFallback() {
		res.Intent.Titles = []string{}
	} else if err := cache.SetJSON(ctx, r.cache, key, res.Intent, r.ttl); err != nil {
		log.Warn().Str("query", query).Err(err).Msg("Intent cache write failed")
	}

	r.metrics.IntentResolved(res.Source)
	return res
}

// Forget drops the memoized intent for query so the next Resolve asks the
// extractor again.
func (r *Resolver) Forget(ctx context.Context, query string) error {
	if err := r.cache.Delete(ctx, CacheKey(query)); err != nil {
		return fmt.Errorf("forget intent: %w", err)
	}
	return nil
}

// Purge drops every memoized intent. Throttle counters are left alone.
func (r *Resolver) Purge(ctx context.Context) error {
	if err := r.cache.DeleteByPrefix(ctx, KeyPrefix); err != nil {
		return fmt.Errorf("purge intents: %w", err)
	}
	return nil
}

func (r *Resolver) extract(ctx context.Context, query string) (Intent, error) {
	if r.extractor == nil {
		return Intent{}, ErrExtractorUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.extractor.Extract(ctx, query)
}
