// Package worker mirrors committed audit entries to logs and metrics. It is
// an operational sink only: the durable trail is already committed before an
// entry reaches the channel, so dropping events here never loses audit data.
package worker

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reguard/internal/auditlog"
)

const defaultBuffer = 256

// Metrics holds Prometheus metrics for the audit sink.
type Metrics struct {
	Observed *prometheus.CounterVec
	Reverted prometheus.Counter
}

// NewMetrics creates a new Metrics instance with audit sink metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Observed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reguard_audit_entries_total",
			Help: "Total committed audit entries by event type and category",
		}, []string{"event_type", "category"}),
		Reverted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reguard_audit_rollbacks_total",
			Help: "Total rollback entries observed by the sink",
		}),
	}
}

// Worker consumes committed entries from the services' sink channel.
type Worker struct {
	entries chan auditlog.Entry
	logger  *slog.Logger
	metrics *Metrics
}

// New constructs a Worker with its own buffered channel.
func New(logger *slog.Logger, metrics *Metrics) *Worker {
	return &Worker{
		entries: make(chan auditlog.Entry, defaultBuffer),
		logger:  logger,
		metrics: metrics,
	}
}

// Sink returns the channel services emit committed entries into.
func (w *Worker) Sink() chan<- auditlog.Entry {
	return w.entries
}

// Run consumes entries until ctx is canceled, then drains what is already
// buffered and returns.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case entry := <-w.entries:
			w.observe(ctx, entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-w.entries:
					w.observe(ctx, entry)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (w *Worker) observe(ctx context.Context, entry auditlog.Entry) {
	category := entry.EventType.Category()
	if w.metrics != nil {
		w.metrics.Observed.WithLabelValues(string(entry.EventType), string(category)).Inc()
		if entry.EventType == auditlog.EventRollback {
			w.metrics.Reverted.Inc()
		}
	}
	w.logger.InfoContext(ctx, "audit entry committed",
		"entry_id", int64(entry.ID),
		"tenant_id", entry.TenantID,
		"actor_id", entry.ActorID,
		"event_type", entry.EventType,
		"category", category,
		"resource_type", entry.ResourceType,
		"resource_id", entry.ResourceID,
	)
}
