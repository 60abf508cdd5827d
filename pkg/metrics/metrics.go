package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts in-app notification records by type tag.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linisbayan_notifications_created_total",
			Help: "Total number of in-app notifications written",
		},
		[]string{"type"},
	)

	// EmailsSent counts outbound email attempts by result (sent|failed|skipped).
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linisbayan_emails_total",
			Help: "Total number of outbound email attempts",
		},
		[]string{"result"},
	)

	// VerificationAttempts counts code verification outcomes
	// (success|mismatch|expired|exhausted|missing).
	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linisbayan_verification_attempts_total",
			Help: "Total number of verification code checks",
		},
		[]string{"purpose", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linisbayan_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
