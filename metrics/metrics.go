// Package metrics provides Prometheus collectors for loop dispatches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "forall"
	subsystem = "dispatch"
)

// A Collector records dispatch metrics. A nil *Collector records nothing.
type Collector struct {
	// dispatches counts completed dispatches.
	// Labels: policy (kind), space (kind), resource
	dispatches *prometheus.CounterVec

	// duration measures the time from dispatch to completion.
	// Labels: policy, space
	duration *prometheus.HistogramVec

	// teamSize tracks the number of workers per dispatch.
	// Labels: policy
	teamSize *prometheus.HistogramVec

	// compositionErrors counts rejected policy/space pairs.
	// Labels: policy, space
	compositionErrors *prometheus.CounterVec

	// panics counts dispatches whose loop body panicked.
	panics prometheus.Counter
}

// NewCollector registers the dispatch collectors with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "total",
			Help:      "Total completed loop dispatches",
		}, []string{"policy", "space", "resource"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Loop dispatch duration in seconds, until completion",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"policy", "space"}),
		teamSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "team_size",
			Help:      "Number of workers per loop dispatch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"policy"}),
		compositionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "composition_errors_total",
			Help:      "Total dispatches rejected because no handler is registered",
		}, []string{"policy", "space"}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "panics_total",
			Help:      "Total dispatches whose loop body panicked",
		}),
	}
}

// Dispatched records a completed dispatch.
func (c *Collector) Dispatched(policy, space, resource string, team int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.dispatches.WithLabelValues(policy, space, resource).Inc()
	c.duration.WithLabelValues(policy, space).Observe(elapsed.Seconds())
	c.teamSize.WithLabelValues(policy).Observe(float64(team))
}

// Rejected records a composition error.
func (c *Collector) Rejected(policy, space string) {
	if c == nil {
		return
	}
	c.compositionErrors.WithLabelValues(policy, space).Inc()
}

// Panicked records a dispatch whose loop body panicked.
func (c *Collector) Panicked() {
	if c == nil {
		return
	}
	c.panics.Inc()
}
