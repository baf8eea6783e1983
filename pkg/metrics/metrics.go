package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts records login attempts by result (success|failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// MembershipChecks counts org membership guard evaluations (allow|deny|error).
	MembershipChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_membership_checks_total",
			Help: "Total number of organization membership checks",
		},
		[]string{"role", "result"},
	)

	// TimeEntriesCreated counts persisted time entries.
	TimeEntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_time_entries_created_total",
			Help: "Total number of time entries created",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worklog_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
