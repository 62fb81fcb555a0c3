package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// CartMetrics records cart operation outcomes and conflict handling.
type CartMetrics struct {
	duration  *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	exhausted *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_operation_duration_seconds",
		Help:    "Duration of cart operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by outcome.",
	}, []string{"operation", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_conflict_retries_total",
		Help: "Write conflicts that triggered the single bounded re-attempt.",
	}, []string{"operation"})
	exhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_conflict_retry_exhausted_total",
		Help: "Write conflicts that persisted after the re-attempt.",
	}, []string{"operation"})
	reg.MustRegister(duration, ops, conflicts, exhausted)
	return &CartMetrics{
		duration:  duration,
		ops:       ops,
		conflicts: conflicts,
		exhausted: exhausted,
	}
}

// Observe records the elapsed time and outcome for one operation call.
func (c *CartMetrics) Observe(operation string, elapsed time.Duration, err error) {
	if c == nil || c.ops == nil {
		return
	}
	op := normalizeLabel(operation)
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.ops.WithLabelValues(op, outcome).Inc()
}

// IncConflictRetry counts a conflict that led to a re-attempt.
func (c *CartMetrics) IncConflictRetry(operation string) {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRetryExhausted counts a conflict that survived the re-attempt.
func (c *CartMetrics) IncRetryExhausted(operation string) {
	if c == nil || c.exhausted == nil {
		return
	}
	c.exhausted.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
