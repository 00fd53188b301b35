package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the remote dispatcher.
type Metrics struct {
	// Invocations counts dispatcher runs by result (ok, unavailable, error).
	Invocations *prometheus.CounterVec

	// Deliveries counts per-device outcomes by reminder kind.
	Deliveries *prometheus.CounterVec

	// Duration is the wall time of one invocation.
	Duration prometheus.Histogram

	// StaleTokens counts subscriptions removed after an invalid-token response.
	StaleTokens prometheus.Counter
}

// NewMetrics creates the dispatcher metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_invocations_total",
				Help:      "Total number of remote dispatcher invocations",
			},
			[]string{"result"},
		),

		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_deliveries_total",
				Help:      "Reminder delivery outcomes per device",
			},
			[]string{"kind", "outcome"},
		),

		Duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time to run one dispatcher invocation",
				Buckets:   []float64{.05, .1, .5, 1, 2, 5, 10, 30},
			},
		),

		StaleTokens: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_tokens_total",
				Help:      "Total number of subscriptions removed for invalid tokens",
			},
		),
	}
}
