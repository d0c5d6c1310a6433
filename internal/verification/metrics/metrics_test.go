package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOutcome("verified", "upstream", 10*time.Millisecond)
	m.ObserveOutcome("verified", "upstream", 20*time.Millisecond)
	m.ObserveOutcome("malformed_identifier", "", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("verified", "upstream")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("malformed_identifier", "none")))
}

func TestMetrics_ObserveFallback(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFallback("credentials_missing", true)
	m.ObserveFallback("upstream_unavailable", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackLookups.WithLabelValues("credentials_missing", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackLookups.WithLabelValues("upstream_unavailable", "miss")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome("verified", "fallback", time.Second)
		m.ObserveFallback("credentials_missing", true)
	})
}
