package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/JustMelih/GameVault/internal/metrics"
	"github.com/JustMelih/GameVault/internal/observability"
)

// BreakerConfig configures a BreakerClient.
type BreakerConfig struct {
	Name         string
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

// BreakerClient wraps a Searcher with a circuit breaker. While the circuit
// is open, calls fail fast with ErrUnavailable.
type BreakerClient struct {
	next    Searcher
	cb      *gobreaker.CircuitBreaker[[]Entry]
	name    string
	logger  *observability.Logger
	metrics *metrics.Metrics
}

// NewBreakerClient creates a BreakerClient. Opens at FailureRatio failures
// once MinRequests have been seen in the current interval.
func NewBreakerClient(next Searcher, cfg BreakerConfig, logger *observability.Logger, m *metrics.Metrics) *BreakerClient {
	if cfg.Name == "" {
		cfg.Name = "rawg-api"
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = observability.Nop()
	}

	b := &BreakerClient{
		next:    next,
		name:    cfg.Name,
		logger:  logger.WithComponent("catalog_breaker"),
		metrics: m,
	}

	if m != nil {
		m.BreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))
	}

	b.cb = gobreaker.NewCircuitBreaker[[]Entry](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				b.logger.Warn().
					Int64("failures", int64(counts.TotalFailures)).
					Float64("failure_rate", ratio*100).
					Msg("Opening catalog circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("Catalog circuit state transition")
			b.metrics.BreakerStateChanged(name, from.String(), to.String(), stateToFloat(to))
		},
		// Caller cancellations say nothing about catalog health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return b
}

// Search implements Searcher.
func (b *BreakerClient) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	entries, err := b.cb.Execute(func() ([]Entry, error) {
		return b.next.Search(ctx, query, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.metrics.BreakerRequest(b.name, "rejected")
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		b.metrics.BreakerRequest(b.name, "failure")
		return nil, err
	}
	b.metrics.BreakerRequest(b.name, "success")
	return entries, nil
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
