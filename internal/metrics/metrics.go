// Watchparty - Watch Party Synchronization for Media Streaming
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchparty

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the watch party service:
// - Party lifecycle (create, join, leave, end)
// - Playback synchronization outcomes
// - Chat throughput
// - Session store occupancy and eviction
// - WebSocket connections
// - API endpoint latency and throughput

var (
	// Party Lifecycle Metrics
	PartiesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "party_created_total",
			Help: "Total number of parties created",
		},
	)

	PartiesEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_ended_total",
			Help: "Total number of parties ended",
		},
		[]string{"reason"}, // "host_left", "explicit"
	)

	JoinAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_join_attempts_total",
			Help: "Total number of join attempts by outcome",
		},
		[]string{"outcome"}, // "accepted", "duplicate", "rejected_capacity"
	)

	MemberLeaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "party_member_leaves_total",
			Help: "Total number of members leaving parties",
		},
	)

	PartyMembers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "party_member_count",
			Help:    "Member count observed at join time",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Playback Sync Metrics
	PlaybackUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_updates_total",
			Help: "Total number of playback state updates applied",
		},
	)

	PlaybackControlDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_control_denied_total",
			Help: "Total number of playback updates rejected for lack of control permission",
		},
	)

	SyncPlans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_plans_total",
			Help: "Total number of sync plans computed by action",
		},
		[]string{"action"}, // "none", "seek"
	)

	SyncDrift = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_drift_seconds",
			Help:    "Absolute drift between client and host clocks at sync check",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Chat Metrics
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of chat messages accepted by type",
		},
		[]string{"type"}, // "message", "system", "reaction"
	)

	ChatMessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_rejected_total",
			Help: "Total number of chat messages rejected",
		},
		[]string{"reason"}, // "invalid", "disabled", "not_member"
	)

	// Session Store Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of sessions held in the store",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_evicted_total",
			Help: "Total number of sessions evicted by TTL sweep",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// SetAppInfo publishes the build version and Go runtime version and starts
// the uptime gauge ticking once per minute.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	start := time.Now()
	go func() {
		for range time.Tick(time.Minute) {
			AppUptime.Set(time.Since(start).Seconds())
		}
	}()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordJoin records a join attempt outcome and, when accepted, the
// resulting member count.
func RecordJoin(outcome string, memberCount int) {
	JoinAttempts.WithLabelValues(outcome).Inc()
	if outcome == "accepted" {
		PartyMembers.Observe(float64(memberCount))
	}
}

// RecordSyncPlan records a computed sync plan and the drift that produced it.
func RecordSyncPlan(action string, drift float64) {
	SyncPlans.WithLabelValues(action).Inc()
	if drift < 0 {
		drift = -drift
	}
	SyncDrift.Observe(drift)
}
