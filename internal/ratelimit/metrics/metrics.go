package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels.
const (
	DecisionAllowed = "allowed"
	DecisionLimited = "limited"
)

// Metrics counts rate limit decisions. A nil *Metrics is a no-op.
type Metrics struct {
	Decisions     *prometheus.CounterVec
	BackendErrors prometheus.Counter
	Degraded      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turia_ratelimit_decisions_total",
			Help: "Rate limit decisions on verification endpoints",
		}, []string{"decision", "backend"}),
		BackendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "turia_ratelimit_backend_errors_total",
			Help: "Errors from the primary rate limit backend",
		}),
		Degraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "turia_ratelimit_degraded",
			Help: "1 while the in-memory fallback limiter is serving decisions",
		}),
	}
}

func (m *Metrics) ObserveDecision(allowed bool, backend string) {
	if m == nil {
		return
	}
	decision := DecisionLimited
	if allowed {
		decision = DecisionAllowed
	}
	m.Decisions.WithLabelValues(decision, backend).Inc()
}

func (m *Metrics) IncBackendErrors() {
	if m == nil {
		return
	}
	m.BackendErrors.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
