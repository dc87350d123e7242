package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PredictionMetrics counts diagnosis requests by result kind.
type PredictionMetrics struct {
	results *prometheus.CounterVec
	latency prometheus.Histogram
}

func NewPredictionMetrics(reg prometheus.Registerer) *PredictionMetrics {
	if reg == nil {
		return &PredictionMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Diagnosis predictions by result kind.",
	}, []string{"kind"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Round trip time of prediction calls.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(results, latency)
	return &PredictionMetrics{results: results, latency: latency}
}

// ObservePrediction records one prediction call. Failed calls use kind "failed".
func (p *PredictionMetrics) ObservePrediction(kind string, duration time.Duration) {
	if p == nil || p.results == nil {
		return
	}
	p.results.WithLabelValues(normalizeLabel(kind)).Inc()
	p.latency.Observe(duration.Seconds())
}
