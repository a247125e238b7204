// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the DR service:
// - Backup/restore/retention run outcomes and durations
// - Disaster-recovery execution state
// - Document-store and artifact-mirror health
// - Scheduler tick outcomes
// - HTTP ops API latency and throughput

var (
	// Backup Metrics
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of backup runs by type and terminal status",
		},
		[]string{"type", "status"}, // type: full|incremental, status: completed|failed
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of backup runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"type"},
	)

	BackupSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_last_size_bytes",
			Help: "Manifest size of the most recent completed backup",
		},
		[]string{"type"},
	)

	BackupDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_documents_total",
			Help: "Total number of documents captured by backup runs",
		},
		[]string{"type"},
	)

	CatalogBackups = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_catalog_entries",
			Help: "Current number of catalog entries by status",
		},
		[]string{"status"},
	)

	BackupSuccessRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_success_rate",
			Help: "Completed backups over total backups (0 to 1)",
		},
	)

	// Restore Metrics
	RestoreRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restore_runs_total",
			Help: "Total number of restore runs by outcome",
		},
		[]string{"status"}, // completed|failed|validated
	)

	RestoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "restore_duration_seconds",
			Help:    "Duration of restore runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	RestoreDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restore_documents_total",
			Help: "Documents processed during restores by result",
		},
		[]string{"result"}, // restored|skipped
	)

	// Retention Metrics
	RetentionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_runs_total",
			Help: "Total number of retention sweeps by outcome",
		},
		[]string{"status"},
	)

	RetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_backups_deleted_total",
			Help: "Backups removed by retention sweeps",
		},
	)

	// Scheduler Metrics
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduler tick outcomes per operation kind",
		},
		[]string{"kind", "outcome"}, // kind: full|incremental|retention, outcome: ok|error|skipped
	)

	// Disaster Recovery Metrics
	DRRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dr_runs_total",
			Help: "Disaster-recovery executions by outcome",
		},
		[]string{"status"},
	)

	DRDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dr_duration_seconds",
			Help:    "Duration of disaster-recovery executions in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 600, 1800, 3600},
		},
	)

	DRStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dr_step_duration_seconds",
			Help:    "Duration of individual recovery steps in seconds",
			Buckets: []float64{0.1, 1, 5, 15, 60, 300, 900},
		},
		[]string{"step"},
	)

	DRStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dr_status",
			Help: "Disaster-recovery state (0=idle, 1=running, 2=failed, 3=completed)",
		},
	)

	DRNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dr_notifications_total",
			Help: "Contact notifications dispatched during DR by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Artifact Mirror Metrics
	MirrorOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_mirror_operations_total",
			Help: "Secondary-storage mirror operations by outcome",
		},
		[]string{"operation", "outcome"}, // operation: put|delete, outcome: ok|error|rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Document Store Metrics
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_operations_total",
			Help: "Document-store operations by outcome",
		},
		[]string{"operation", "outcome"}, // operation: list_databases|list_collections|read|upsert|ping
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstore_operation_duration_seconds",
			Help:    "Duration of document-store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Event Publishing Metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Lifecycle events published to NATS by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests to the ops API",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

// RecordBackupRun records a terminal backup run outcome.
func RecordBackupRun(backupType, status string, duration time.Duration, sizeBytes int64) {
	BackupRunsTotal.WithLabelValues(backupType, status).Inc()
	BackupDuration.WithLabelValues(backupType).Observe(duration.Seconds())
	if status == "completed" {
		BackupSizeBytes.WithLabelValues(backupType).Set(float64(sizeBytes))
	}
}

// RecordRestoreRun records a terminal restore run outcome.
func RecordRestoreRun(status string, duration time.Duration) {
	RestoreRunsTotal.WithLabelValues(status).Inc()
	RestoreDuration.Observe(duration.Seconds())
}

// RecordRetentionRun records a retention sweep outcome and its deletions.
func RecordRetentionRun(status string, deleted int) {
	RetentionRunsTotal.WithLabelValues(status).Inc()
	if deleted > 0 {
		RetentionDeletedTotal.Add(float64(deleted))
	}
}

// RecordScheduledRun records one scheduler tick outcome.
func RecordScheduledRun(kind, outcome string) {
	ScheduledRunsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDRRun records a disaster-recovery execution outcome.
func RecordDRRun(status string, duration time.Duration) {
	DRRunsTotal.WithLabelValues(status).Inc()
	DRDuration.Observe(duration.Seconds())
}

// RecordStoreOperation records a document-store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, outcome).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateCatalogGauges refreshes catalog composition gauges after mutations.
func UpdateCatalogGauges(completed, failed, inProgress int, successRate float64) {
	CatalogBackups.WithLabelValues("completed").Set(float64(completed))
	CatalogBackups.WithLabelValues("failed").Set(float64(failed))
	CatalogBackups.WithLabelValues("in_progress").Set(float64(inProgress))
	BackupSuccessRate.Set(successRate)
}

// TrackActiveRequest adjusts the in-flight HTTP request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordHTTPRequest records one completed ops API request. The path label
// should be the route pattern, not the raw URL, to keep cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
