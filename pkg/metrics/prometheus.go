package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recordsStored  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	predictedCases *prometheus.GaugeVec
	trainingRuns   *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recordsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicast_records_stored_total",
				Help: "Series records routed to a backend, by backend and record kind",
			},
			[]string{"backend", "kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		predictedCases: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epicast_predicted_cases",
				Help: "Most recent forecast-horizon total predicted cases per disease",
			},
			[]string{"disease"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicast_training_runs_total",
				Help: "Training pipeline runs by disease and terminal status",
			},
			[]string{"disease", "status"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRecordsStored counts records routed to a backend.
func (r *Recorder) RecordRecordsStored(backend, kind string, n int) {
	r.recordsStored.WithLabelValues(backend, kind).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPredictedCases records the latest horizon total for a disease.
func (r *Recorder) RecordPredictedCases(disease string, cases float64) {
	r.predictedCases.WithLabelValues(disease).Set(cases)
}

// RecordTrainingRun counts one completed or failed training run.
func (r *Recorder) RecordTrainingRun(disease, status string) {
	r.trainingRuns.WithLabelValues(disease, status).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
