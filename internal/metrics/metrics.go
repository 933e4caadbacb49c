// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// Guard decisions.
const (
	GuardPass          = "pass"
	GuardNoCookie      = "no_cookie"
	GuardUnknownToken  = "unknown_token"
	GuardInvalid       = "invalid_session"
	GuardRegistryOpen  = "registry_error_open"
	GuardRegistryClose = "registry_error_closed"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// AuthOutcomes counts session validations by result kind ("ok" on success).
	AuthOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "validations_total",
			Help:      "Session validations by outcome",
		},
		[]string{"outcome"},
	)

	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Admin route guard decisions",
		},
		[]string{"decision"},
	)

	CronRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "runs_total",
			Help:      "Scheduled job executions by job and result",
		},
		[]string{"job", "result"},
	)

	MediaUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "upload_bytes",
			Help:      "Size of accepted media uploads",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
		},
	)
)

// ObserveAuth records the outcome of a session validation.
func ObserveAuth(outcome string) {
	AuthOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveGuard records a route guard decision.
func ObserveGuard(decision string) {
	GuardDecisions.WithLabelValues(decision).Inc()
}

// ObserveCron records a job execution.
func ObserveCron(job string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CronRuns.WithLabelValues(job, result).Inc()
}

// RegisterDBStats exposes connection pool stats of db under dbName.
// Registering the same dbName twice is a no-op.
func RegisterDBStats(db *sql.DB, dbName string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
	if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return nil
	}
	return err
}
