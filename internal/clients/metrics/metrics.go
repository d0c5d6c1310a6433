package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts client registry writes. A nil *Metrics is a no-op.
type Metrics struct {
	Operations    *prometheus.CounterVec
	Verifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turia_clients_operations_total",
			Help: "Client registry writes by operation",
		}, []string{"operation"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turia_clients_verifications_total",
			Help: "Client GSTIN verifications by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncOperation(op string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op).Inc()
}

func (m *Metrics) IncVerification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}
