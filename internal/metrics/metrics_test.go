package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSearch(OutcomeOK, 120*time.Millisecond)
	m.ObserveSearch(OutcomeThrottled, 0)
	m.IntentResolved(SourceFallback)
	m.CatalogFailed(FailureHint)
	m.BreakerStateChanged("rawg", "closed", "open", 2)
	m.BreakerRequest("rawg", "rejected")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues(OutcomeThrottled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentSource.WithLabelValues(SourceFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFailures.WithLabelValues(FailureHint)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("rawg")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gamevault_search_latency_seconds")
	assert.Contains(t, names, "gamevault_circuit_breaker_transitions_total")
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSearch(OutcomeOK, time.Second)
		m.IntentResolved(SourceCache)
		m.CatalogFailed(FailureMain)
		m.BreakerStateChanged("x", "a", "b", 1)
		m.BreakerRequest("x", "success")
	})
}
