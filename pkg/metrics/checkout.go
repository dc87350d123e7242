package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diagnosis"

// CheckoutMetrics records checkout attempts and the time spent in each
// network-bound phase.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	phases   *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by final state.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_attempt_duration_seconds",
		Help:      "Wall time from checkout start to its final state.",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"outcome"})
	phases := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_phase_duration_seconds",
		Help:      "Duration of gateway load, order creation and verification calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase", "result"})
	reg.MustRegister(attempts, duration, phases)
	return &CheckoutMetrics{
		attempts: attempts,
		duration: duration,
		phases:   phases,
	}
}

// ObserveAttempt counts a finished attempt and records how long it took.
func (c *CheckoutMetrics) ObserveAttempt(outcome string, duration time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.attempts.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObservePhase records one phase call.
func (c *CheckoutMetrics) ObservePhase(phase string, success bool, duration time.Duration) {
	if c == nil || c.phases == nil {
		return
	}
	c.phases.WithLabelValues(normalizeLabel(phase), resultLabel(success)).Observe(duration.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
