package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	gradingRunsTotal    *prometheus.CounterVec
	gradingScoreSpread  prometheus.Histogram
	reviewFlaggedTotal  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nilai_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nilai_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nilai_http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nilai_grading_runs_total",
			Help: "Total number of grading runs by outcome.",
		}, []string{"outcome"})

		gradingScoreSpread = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nilai_grading_score",
			Help:    "Distribution of aggregate submission scores.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		})

		reviewFlaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nilai_review_flagged_total",
			Help: "Total number of submissions flagged for manual review.",
		})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, gradingRunsTotal, gradingScoreSpread, reviewFlaggedTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingRuns exposes the counter for grading run outcomes.
func GradingRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}

// GradingScores exposes the aggregate score histogram.
func GradingScores() prometheus.Histogram {
	RegisterMetrics()
	return gradingScoreSpread
}

// ReviewFlagged exposes the counter for review-flagged submissions.
func ReviewFlagged() prometheus.Counter {
	RegisterMetrics()
	return reviewFlaggedTotal
}
