// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksGenerated counts task drafts persisted, by the operation that
	// produced them (create, update).
	TasksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitr_tasks_generated_total",
			Help: "Total number of tasks generated from habit schedules",
		},
		[]string{"source"},
	)

	// TasksPurged counts not-yet-started tasks removed by habit updates.
	TasksPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habitr_tasks_purged_total",
			Help: "Total number of future tasks removed while rescheduling habits",
		},
	)

	TasksCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habitr_tasks_completed_total",
			Help: "Total number of tasks marked completed",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordGenerated adds n generated tasks for source.
func RecordGenerated(source string, n int) {
	if n > 0 {
		TasksGenerated.WithLabelValues(source).Add(float64(n))
	}
}

// RecordHTTPRequest observes one request's latency.
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
