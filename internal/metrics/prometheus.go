/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for the access review service
 *
 * Exposes HTTP request metrics and review workflow counters: cycles
 * started, stage actions, staged change applications, and notification
 * outcomes.
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessreview_http_requests_total",
			Help: "Total HTTP requests by method, endpoint, and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accessreview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	cyclesStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accessreview_cycles_started_total",
			Help: "Total review cycles started",
		},
	)

	reviewItemsSnapshotted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accessreview_review_items_snapshotted_total",
			Help: "Total review items created by cycle starts",
		},
	)

	stageActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessreview_stage_actions_total",
			Help: "Total stage actions recorded by stage and action",
		},
		[]string{"stage", "action"},
	)

	stagedChangesAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessreview_staged_changes_applied_total",
			Help: "Total terminal dispositions by audit action kind",
		},
		[]string{"result"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessreview_notifications_total",
			Help: "Total notification attempts by status",
		},
		[]string{"status"},
	)

	dbPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accessreview_db_pool_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

/* RecordHTTPRequest records an HTTP request with its outcome */
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordCycleStarted records a review cycle start and its snapshot size */
func RecordCycleStarted(itemCount int) {
	cyclesStartedTotal.Inc()
	reviewItemsSnapshotted.Add(float64(itemCount))
}

/* RecordStageAction records a stage action */
func RecordStageAction(stage, action string) {
	stageActionsTotal.WithLabelValues(stage, action).Inc()
}

/* RecordStagedChangeApplied records a terminal disposition by audit kind */
func RecordStagedChangeApplied(result string) {
	stagedChangesAppliedTotal.WithLabelValues(result).Inc()
}

/* RecordNotification records a notification attempt */
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}

/* RecordDBPoolStats records connection pool statistics */
func RecordDBPoolStats(openConns, idleConns, inUse int) {
	dbPoolConnections.WithLabelValues("open").Set(float64(openConns))
	dbPoolConnections.WithLabelValues("idle").Set(float64(idleConns))
	dbPoolConnections.WithLabelValues("in_use").Set(float64(inUse))
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
