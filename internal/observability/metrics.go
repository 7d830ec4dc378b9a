package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	evaluationsTotal    *prometheus.CounterVec
	evaluationsRejected *prometheus.CounterVec
	resultEventsTotal   *prometheus.CounterVec
	foldLatencySeconds  *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalia_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evalia_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalia_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalia_evaluations_recorded_total",
			Help: "Evaluations recorded in the ledger, by target type and whether they replaced a prior record.",
		}, []string{"target_type", "replaced"})

		evaluationsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalia_evaluations_rejected_total",
			Help: "Evaluation submissions rejected before any write, by reason.",
		}, []string{"reason"})

		resultEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalia_result_events_published_total",
			Help: "Result refresh events published after successful folds.",
		}, []string{"target_type"})

		foldLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evalia_fold_latency_seconds",
			Help:    "Latency of the transactional ledger write plus aggregate fold.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"target_type"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			evaluationsTotal, evaluationsRejected, resultEventsTotal, foldLatencySeconds,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// EvaluationsRecorded exposes the counter for recorded evaluations.
func EvaluationsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationsRejected exposes the counter for rejected submissions.
func EvaluationsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsRejected
}

// ResultEventsPublished exposes the counter for published result events.
func ResultEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return resultEventsTotal
}

// FoldLatency exposes the histogram for ledger fold latency.
func FoldLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return foldLatencySeconds
}
