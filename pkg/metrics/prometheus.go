package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations *prometheus.CounterVec
	quotes       *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastValue    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_observations_ingested_total",
				Help: "Total number of economic observations ingested",
			},
			[]string{"source", "series"},
		),
		quotes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_quotes_received_total",
				Help: "Total number of market quotes received",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macropulse_series_last_value",
				Help: "Last observed value for a series",
			},
			[]string{"series"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records one ingested observation.
func (r *Recorder) RecordObservation(source, seriesID string) {
	r.observations.WithLabelValues(source, seriesID).Inc()
}

// RecordQuote records one received market quote.
func (r *Recorder) RecordQuote(symbol string) {
	r.quotes.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastValue records the latest value observed for a series.
func (r *Recorder) RecordLastValue(seriesID string, value float64) {
	r.lastValue.WithLabelValues(seriesID).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
