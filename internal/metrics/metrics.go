// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	PingsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_pings_processed_total",
			Help: "Location pings processed, by outcome",
		},
		[]string{"outcome"}, // ok, invalid, not_found, error
	)

	PingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "safarsathi_ping_duration_seconds",
			Help:    "End-to-end time to process one location ping",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_rule_evaluations_total",
			Help: "Detection rule evaluations, by rule and outcome",
		},
		[]string{"rule", "outcome"}, // clear, triggered, error
	)

	ZoneEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_zone_entries_total",
			Help: "Risk zone entries, by zone risk level",
		},
		[]string{"risk_level"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_alerts_created_total",
			Help: "Alerts persisted, by alert type",
		},
		[]string{"alert_type"},
	)

	AlertStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_alert_status_changes_total",
			Help: "Operator status updates, by new status",
		},
		[]string{"status"},
	)

	BroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_broadcast_total",
			Help: "Live alert broadcasts, by publisher and outcome",
		},
		[]string{"publisher", "outcome"},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safarsathi_notifications_created_total",
			Help: "In-app notifications created",
		},
	)

	NotificationsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safarsathi_notifications_read_total",
			Help: "Notifications transitioned from unread to read",
		},
	)

	NotifierDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_notifier_deliveries_total",
			Help: "Operator notifier deliveries, by notifier and outcome",
		},
		[]string{"notifier", "outcome"},
	)

	// Sequences
	SequenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safarsathi_sequence_next_duration_seconds",
			Help:    "Latency of SequenceGenerator.Next",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	SequenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_sequence_errors_total",
			Help: "Failed sequence increments",
		},
		[]string{"backend"},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Zone cache
	ZoneCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_zone_cache_hits_total",
			Help: "Active zone lookups served from cache",
		},
		[]string{"layer"}, // memory, redis
	)

	ZoneCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safarsathi_zone_cache_misses_total",
			Help: "Active zone lookups that went to the store",
		},
	)

	// API
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
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "WebSocket messages dropped because a buffer was full",
		},
		[]string{"reason"}, // hub_full, client_slow
	)

	// Messaging
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_messages_published_total",
			Help: "Messages published to external brokers",
		},
		[]string{"transport", "outcome"}, // nats, rabbitmq
	)

	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_messages_consumed_total",
			Help: "Messages consumed from external brokers",
		},
		[]string{"transport", "outcome"}, // nats, mqtt
	)

	// Audit
	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safarsathi_audit_events_total",
			Help: "Audit events by outcome of the write",
		},
		[]string{"outcome"}, // ok, error, dropped
	)

	// Application
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordPing records one processed ping.
func RecordPing(outcome string, duration time.Duration) {
	PingsProcessed.WithLabelValues(outcome).Inc()
	PingDuration.Observe(duration.Seconds())
}

// RecordRuleEvaluation records one rule run; outcome is clear, triggered or error.
func RecordRuleEvaluation(rule, outcome string) {
	RuleEvaluations.WithLabelValues(rule, outcome).Inc()
}

// RecordZoneEntry counts a zone entry. An empty level is reported as "unspecified".
func RecordZoneEntry(riskLevel string) {
	if riskLevel == "" {
		riskLevel = "unspecified"
	}
	ZoneEntries.WithLabelValues(riskLevel).Inc()
}

func RecordAlertCreated(alertType string) {
	AlertsCreated.WithLabelValues(alertType).Inc()
}

func RecordAlertStatusChange(status string) {
	AlertStatusChanges.WithLabelValues(status).Inc()
}

// RecordBroadcast records a live publish attempt.
func RecordBroadcast(publisher string, err error) {
	BroadcastTotal.WithLabelValues(publisher, outcome(err)).Inc()
}

func RecordNotificationCreated() {
	NotificationsCreated.Inc()
}

func RecordNotificationsRead(n int) {
	if n > 0 {
		NotificationsRead.Add(float64(n))
	}
}

// RecordNotifierDelivery records an operator notifier send.
func RecordNotifierDelivery(notifier string, err error) {
	NotifierDeliveries.WithLabelValues(notifier, outcome(err)).Inc()
}

// RecordSequence records one Next call against a backend.
func RecordSequence(backend string, duration time.Duration, err error) {
	SequenceDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		SequenceErrors.WithLabelValues(backend).Inc()
	}
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordZoneCache records a zone cache lookup. layer is empty on a miss.
func RecordZoneCache(layer string) {
	if layer == "" {
		ZoneCacheMisses.Inc()
		return
	}
	ZoneCacheHits.WithLabelValues(layer).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func RecordPublish(transport string, err error) {
	MessagesPublished.WithLabelValues(transport, outcome(err)).Inc()
}

func RecordConsume(transport string, err error) {
	MessagesConsumed.WithLabelValues(transport, outcome(err)).Inc()
}

// RecordAuditEvent records an audit write; outcome is ok, error or dropped.
func RecordAuditEvent(outcome string) {
	AuditEvents.WithLabelValues(outcome).Inc()
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
