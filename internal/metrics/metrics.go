// Package metrics holds the Prometheus collectors for the search pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search request outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeBadRequest = "bad_request"
	OutcomeThrottled  = "throttled"
	OutcomeCancelled  = "cancelled"
)

// Intent sources.
const (
	SourceCache     = "cache"
	SourceExtractor = "extractor"
	SourceFallback  = "fallback"
)

// Catalog failure kinds.
const (
	FailureMain = "main"
	FailureHint = "hint"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing, so components can be built without a registry.
type Metrics struct {
	SearchRequests     *prometheus.CounterVec
	IntentSource       *prometheus.CounterVec
	CatalogFailures    *prometheus.CounterVec
	SearchLatency      prometheus.Histogram
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamevault_search_requests_total",
			Help: "Search requests by outcome",
		}, []string{"outcome"}),
		IntentSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamevault_intent_source_total",
			Help: "Resolved intents by source",
		}, []string{"source"}),
		CatalogFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamevault_catalog_failures_total",
			Help: "Failed catalog searches by query kind",
		}, []string{"kind"}),
		SearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamevault_search_latency_seconds",
			Help:    "Latency of completed searches",
			Buckets: prometheus.DefBuckets,
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gamevault_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamevault_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		}, []string{"name", "from", "to"}),
		BreakerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamevault_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker by result",
		}, []string{"name", "result"}),
	}

	reg.MustRegister(
		m.SearchRequests,
		m.IntentSource,
		m.CatalogFailures,
		m.SearchLatency,
		m.BreakerState,
		m.BreakerTransitions,
		m.BreakerRequests,
	)

	return m
}

// ObserveSearch records one search outcome. Latency is only observed for
// completed searches.
func (m *Metrics) ObserveSearch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.SearchLatency.Observe(took.Seconds())
	}
}

// IntentResolved counts an intent by source.
func (m *Metrics) IntentResolved(source string) {
	if m == nil {
		return
	}
	m.IntentSource.WithLabelValues(source).Inc()
}

// CatalogFailed counts a failed catalog call.
func (m *Metrics) CatalogFailed(kind string) {
	if m == nil {
		return
	}
	m.CatalogFailures.WithLabelValues(kind).Inc()
}

// BreakerStateChanged records a breaker transition.
func (m *Metrics) BreakerStateChanged(name, from, to string, value float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(value)
	m.BreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// BreakerRequest counts a call through a breaker.
func (m *Metrics) BreakerRequest(name, result string) {
	if m == nil {
		return
	}
	m.BreakerRequests.WithLabelValues(name, result).Inc()
}
