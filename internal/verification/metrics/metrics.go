package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks verification outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	FallbackLookups *prometheus.CounterVec
	Duration        prometheus.Histogram
}

// New registers the verification collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turia_gstin_verifications_total",
			Help: "GSTIN verifications by terminal outcome and source",
		}, []string{"outcome", "source"}),
		FallbackLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turia_gstin_fallback_lookups_total",
			Help: "Fallback table lookups by triggering category and result",
		}, []string{"trigger", "result"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "turia_gstin_verification_duration_seconds",
			Help:    "End to end GSTIN verification latency",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
	}
}

func (m *Metrics) ObserveOutcome(outcome, source string, d time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.Outcomes.WithLabelValues(outcome, source).Inc()
	m.Duration.Observe(d.Seconds())
}

func (m *Metrics) ObserveFallback(trigger string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.FallbackLookups.WithLabelValues(trigger, result).Inc()
}
