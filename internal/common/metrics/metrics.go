// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	SelectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_runs_total",
			Help: "Selection runs by category and outcome status",
		},
		[]string{"category", "status"},
	)

	SelectionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_attempts_total",
			Help: "Selection attempts (page batches) by category",
		},
		[]string{"category"},
	)

	SelectionAdmissibleCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "selection_candidates_admissible",
			Help:    "Admissible candidates found per attempt",
			Buckets: []float64{0, 1, 5, 10, 20, 40, 80, 160},
		},
		[]string{"category"},
	)

	MetadataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_requests_total",
			Help: "Requests to the metadata service by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	MetadataRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metadata_request_duration_seconds",
			Help:    "Metadata service request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_failures_total",
			Help: "Failed enrichment lookups by category and lookup",
		},
		[]string{"category", "lookup"},
	)
)

// ObserveMetadataRequest matches the http client Observer signature.
func ObserveMetadataRequest(endpoint, status string, elapsed time.Duration) {
	MetadataRequests.WithLabelValues(endpoint, status).Inc()
	MetadataRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
