package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tably_calls_created_total",
		Help: "Service calls created, by type.",
	}, []string{"type"})

	callsRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tably_calls_rate_limited_total",
		Help: "Call attempts rejected by the cooldown, by type.",
	}, []string{"type"})

	callsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tably_calls_resolved_total",
		Help: "Calls resolved, by reason (admin or stale).",
	}, []string{"reason"})

	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tably_sessions_created_total",
		Help: "Sessions issued from QR scans.",
	})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tably_sessions_swept_total",
		Help: "Expired sessions deleted by the sweeper.",
	})

	loginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tably_admin_login_failures_total",
		Help: "Failed admin login attempts.",
	})

	// FeedDropped counts hub messages dropped for slow subscribers.
	FeedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tably_feed_dropped_total",
		Help: "Live feed messages dropped because a subscriber was full.",
	})
)
