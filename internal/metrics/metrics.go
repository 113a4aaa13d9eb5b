package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "imagegenie"

var (
	BatchSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_submitted_total",
			Help:      "Total number of generation batches submitted.",
		},
	)

	TaskFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_finished_total",
			Help:      "Total number of generation tasks reaching a terminal state, labeled by model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	TaskDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time from worker slot acquisition to terminal state (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 180, 300},
		},
		[]string{"model", "outcome"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of inference backend runs, labeled by prediction status.",
		},
		[]string{"status"},
	)

	BackendLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_seconds",
			Help:      "Latency of successful backend runs including polling (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 180},
		},
	)

	DownloadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_failures_total",
			Help:      "Total number of image payload downloads or decodes that failed.",
		},
	)

	PersistenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_errors_total",
			Help:      "Total number of file or database writes that failed, labeled by target.",
		},
		[]string{"target"},
	)

	VotingSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voting_sessions_total",
			Help:      "Total number of arena voting sessions recorded.",
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the local API rate limiter.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		BatchSubmittedTotal,
		TaskFinishedTotal,
		TaskDurationSeconds,
		BackendRequestsTotal,
		BackendLatencySeconds,
		DownloadFailuresTotal,
		PersistenceErrorsTotal,
		VotingSessionsTotal,
		RateLimitHitsTotal,
	)
}
