package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher
	TasksClaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postsync_tasks_claimed_total",
			Help: "Total number of tasks moved from PENDING to PROCESSING",
		},
	)

	TaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsync_task_outcomes_total",
			Help: "Task attempts by resulting status",
		},
		[]string{"status"}, // "completed", "retry", "failed"
	)

	StaleTasksRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postsync_stale_tasks_requeued_total",
			Help: "Tasks recovered from an abandoned PROCESSING state",
		},
	)

	DrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "postsync_drain_duration_seconds",
			Help:    "Duration of one dispatcher batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Publisher
	PlatformResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsync_platform_results_total",
			Help: "Per-platform publish outcomes",
		},
		[]string{"platform", "outcome"}, // "published", "failed"
	)

	ResultsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsync_results_skipped_total",
			Help: "Publish results not recorded because no connected account exists",
		},
		[]string{"platform"},
	)

	// Gateway
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsync_gateway_request_duration_seconds",
			Help:    "Duration of gateway API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "postsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Analytics
	AnalyticsRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsync_analytics_rows_total",
			Help: "Analytics snapshot rows by outcome",
		},
		[]string{"outcome"}, // "synced", "failed"
	)
)
