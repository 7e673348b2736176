package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the applicability module.
type Metrics struct {
	// Resolution latency including store reads and rule evaluation
	ResolveLatency prometheus.Histogram

	// Final verdicts by mapping kind
	Verdicts *prometheus.CounterVec

	// Rule and override mutations by operation
	Mutations *prometheus.CounterVec
}

// New creates a new Metrics instance with all applicability metrics registered.
func New() *Metrics {
	return &Metrics{
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reguard_applicability_resolve_duration_seconds",
			Help:    "Duration of full applicability resolution for one requirement",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reguard_applicability_verdicts_total",
			Help: "Total resolved organization verdicts by mapping kind",
		}, []string{"kind"}),

		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reguard_applicability_mutations_total",
			Help: "Total rule and override mutations by operation",
		}, []string{"operation"}), // operation: "set_rule", "delete_rule", "add_override", "remove_override"
	}
}

// ObserveResolveLatency records the duration of one resolution.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// IncrementVerdict records one organization's final verdict.
func (m *Metrics) IncrementVerdict(kind string) {
	if m != nil {
		m.Verdicts.WithLabelValues(kind).Inc()
	}
}

// IncrementMutation records a rule or override mutation.
func (m *Metrics) IncrementMutation(operation string) {
	if m != nil {
		m.Mutations.WithLabelValues(operation).Inc()
	}
}
