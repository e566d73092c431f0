package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by flow (login|register|refresh|reset) and result.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"flow", "result"},
	)

	// PermissionChecks counts role gate evaluations and their outcome (allow|deny).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_permission_checks_total",
			Help: "Total number of role checks",
		},
		[]string{"role", "result"},
	)

	// IssuedCredentials counts access/refresh credential pairs handed out.
	IssuedCredentials = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskdesk_issued_credentials_total",
			Help: "Total number of credential pairs issued",
		},
	)

	// TokenCacheOperations counts token cache calls by operation and result (hit|miss|ok|error).
	TokenCacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_token_cache_operations_total",
			Help: "Total number of token cache operations",
		},
		[]string{"operation", "result"},
	)

	// MaintenanceRuns counts maintenance job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskdesk_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskdesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
