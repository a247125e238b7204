// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package audit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// LogLevel filters events by minimum severity.
	LogLevel Severity `json:"log_level"`

	// RetentionDays is how long to keep audit events.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often retention cleanup runs.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// MirrorToLog also emits every event through the application log.
	MirrorToLog bool `json:"mirror_to_log"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		LogLevel:        SeverityInfo,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
		MirrorToLog:     false,
	}
}

// Logger is the audit logging service. Log never blocks; events queue
// on a channel and a background writer persists them.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	mu        sync.RWMutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewLogger creates an audit logger writing to store. A nil config
// selects DefaultConfig.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writeLoop()

	return l
}

// writeLoop drains the buffer, finishing queued events on shutdown.
func (l *Logger) writeLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	l.mu.RLock()
	mirror := l.config.MirrorToLog
	l.mu.RUnlock()

	if mirror {
		data, err := json.Marshal(event)
		if err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}

	if l.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.store.Save(ctx, event); err != nil {
			logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
		}
	}
}

// Log records an audit event. Missing IDs and timestamps are stamped.
// A full buffer drops the event with a warning rather than blocking.
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if !config.Enabled {
		return
	}
	if severityRank(event.Severity) < severityRank(config.LogLevel) {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

func severityRank(severity Severity) int {
	switch severity {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 1
	}
}

// Close shuts down the logger after draining queued events.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	return nil
}

// Cleanup runs one retention sweep, deleting events past the horizon.
// It returns the number of events removed.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	l.mu.RLock()
	retention := l.config.RetentionDays
	l.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -retention)
	count, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Info().Int64("count", count).Msg("Cleaned up old audit events")
	}
	return count, nil
}

// CleanupInterval returns how often retention cleanup should run.
func (l *Logger) CleanupInterval() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.CleanupInterval
}

// StartCleanupRoutine sweeps retention once per cleanup interval until
// ctx is canceled. Deployments running the supervision tree register an
// AuditCleanupService instead so sweeps restart with the tree.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	interval := l.CleanupInterval()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := l.Cleanup(ctx); err != nil {
					logging.Error().Err(err).Msg("Audit cleanup error")
				}
			}
		}
	}()
}

// Query retrieves events matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of events matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// SetEnabled toggles audit logging at runtime.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Enabled = enabled
}

// Enabled reports whether audit logging is active.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Enabled
}

// Helper methods for the events this service emits.

// LogAuthSuccess records a successful API authentication.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogAuthSuccess(ctx context.Context, actor Actor, source Source, authMethod string) {
	l.Log(&Event{
		Type:        EventTypeAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "authenticate",
		Description: "Request authenticated",
		Metadata:    mustJSON(map[string]string{"method": authMethod}),
		RequestID:   getRequestID(ctx),
	})
}

// LogAuthFailure records a rejected API authentication attempt.
func (l *Logger) LogAuthFailure(ctx context.Context, subject string, source Source, reason string) {
	l.Log(&Event{
		Type:     EventTypeAuthFailure,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor: Actor{
			ID:   subject,
			Type: "user",
		},
		Source:      source,
		Action:      "authenticate",
		Description: "Authentication failed: " + reason,
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   getRequestID(ctx),
	})
}

// LogAuthzDenied records a role check that refused an operation.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogAuthzDenied(ctx context.Context, actor Actor, source Source, resource, action string) {
	l.Log(&Event{
		Type:     EventTypeAuthzDenied,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor:    actor,
		Source:   source,
		Action:   "authorize",
		Target: &Target{
			ID:   resource,
			Type: "resource",
		},
		Description: "Authorization denied for " + action + " on " + resource,
		Metadata: mustJSON(map[string]string{
			"resource":         resource,
			"requested_action": action,
		}),
		RequestID: getRequestID(ctx),
	})
}

// LogBackupRun records a terminal backup run, completed or failed.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogBackupRun(ctx context.Context, actor Actor, backupID, backupType, status string, sizeBytes, documents int64) {
	eventType := EventTypeBackupCompleted
	severity := SeverityInfo
	outcome := OutcomeSuccess
	if status != "completed" {
		eventType = EventTypeBackupFailed
		severity = SeverityError
		outcome = OutcomeFailure
	}
	l.Log(&Event{
		Type:     eventType,
		Severity: severity,
		Outcome:  outcome,
		Actor:    actor,
		Target: &Target{
			ID:   backupID,
			Type: "backup",
		},
		Action:      "backup",
		Description: "Backup " + backupID + " " + status,
		Metadata: mustJSON(map[string]interface{}{
			"backup_type": backupType,
			"size_bytes":  sizeBytes,
			"documents":   documents,
		}),
		RequestID: getRequestID(ctx),
	})
}

// LogBackupDeleted records a catalog deletion.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogBackupDeleted(ctx context.Context, actor Actor, source Source, backupID string) {
	l.Log(&Event{
		Type:     EventTypeBackupDeleted,
		Severity: SeverityWarning,
		Outcome:  OutcomeSuccess,
		Actor:    actor,
		Source:   source,
		Action:   "delete",
		Target: &Target{
			ID:   backupID,
			Type: "backup",
		},
		Description: "Backup " + backupID + " removed from the catalog",
		RequestID:   getRequestID(ctx),
	})
}

// LogBackupValidated records an integrity validation pass or failure.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogBackupValidated(ctx context.Context, actor Actor, source Source, backupID string, ok bool, detail string) {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	description := "Backup " + backupID + " passed integrity validation"
	if !ok {
		outcome = OutcomeFailure
		severity = SeverityError
		description = "Backup " + backupID + " failed integrity validation: " + detail
	}
	l.Log(&Event{
		Type:     EventTypeBackupValidated,
		Severity: severity,
		Outcome:  outcome,
		Actor:    actor,
		Source:   source,
		Action:   "validate",
		Target: &Target{
			ID:   backupID,
			Type: "backup",
		},
		Description: description,
		RequestID:   getRequestID(ctx),
	})
}

// LogRestore records a restore run. The correlation ID carries the
// source backup so the trail links restore to backup.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogRestore(ctx context.Context, actor Actor, source Source, backupID, targetDatabase string, restored, skipped int64, runErr error) {
	eventType := EventTypeRestoreCompleted
	severity := SeverityWarning // restores rewrite production data
	outcome := OutcomeSuccess
	description := "Backup " + backupID + " restored"
	if runErr != nil {
		eventType = EventTypeRestoreFailed
		severity = SeverityError
		outcome = OutcomeFailure
		description = "Restore of backup " + backupID + " failed: " + runErr.Error()
	}
	l.Log(&Event{
		Type:     eventType,
		Severity: severity,
		Outcome:  outcome,
		Actor:    actor,
		Source:   source,
		Action:   "restore",
		Target: &Target{
			ID:   backupID,
			Type: "backup",
		},
		Description: description,
		Metadata: mustJSON(map[string]interface{}{
			"target_database":    targetDatabase,
			"documents_restored": restored,
			"documents_skipped":  skipped,
		}),
		CorrelationID: backupID,
		RequestID:     getRequestID(ctx),
	})
}

// LogRetentionApplied records a retention sweep.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogRetentionApplied(ctx context.Context, actor Actor, source Source, removed int, dryRun bool) {
	l.Log(&Event{
		Type:        EventTypeRetentionApplied,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "retention",
		Description: "Retention sweep removed " + strconv.Itoa(removed) + " backups",
		Metadata: mustJSON(map[string]interface{}{
			"removed": removed,
			"dry_run": dryRun,
		}),
		RequestID: getRequestID(ctx),
	})
}

// LogDRExecuted records a disaster-recovery run. Failed runs log as
// critical.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogDRExecuted(ctx context.Context, actor Actor, source Source, plan, status string, stepsExecuted, stepsTotal int) {
	severity := SeverityWarning
	outcome := OutcomeSuccess
	if status != "completed" {
		severity = SeverityCritical
		outcome = OutcomeFailure
	}
	l.Log(&Event{
		Type:     EventTypeDRExecuted,
		Severity: severity,
		Outcome:  outcome,
		Actor:    actor,
		Source:   source,
		Action:   "execute",
		Target: &Target{
			ID:   plan,
			Type: "plan",
		},
		Description: "Disaster recovery plan " + plan + " " + status,
		Metadata: mustJSON(map[string]interface{}{
			"steps_executed": stepsExecuted,
			"steps_total":    stepsTotal,
		}),
		RequestID: getRequestID(ctx),
	})
}

// LogAdminAction records a general administrative action.
//
//nolint:gocritic // hugeParam: Actor passed by value for API simplicity
func (l *Logger) LogAdminAction(ctx context.Context, actor Actor, source Source, action, description string, metadata map[string]interface{}) {
	l.Log(&Event{
		Type:        EventTypeAdminAction,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      action,
		Description: description,
		Metadata:    mustJSON(metadata),
		RequestID:   getRequestID(ctx),
	})
}

// mustJSON converts a value to JSON, returning an empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

type contextKey string

// RequestIDKey is the context key the request ID middleware populates.
const RequestIDKey contextKey = "request_id"

// SourceFromRequest creates a Source from an HTTP request. Proxy headers
// take precedence over the connection address, which has its port removed.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = xff
	} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
		ip = xri
	}

	return Source{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		Hostname:  r.Host,
	}
}

// ActorFromClaims creates an Actor from verified token claims.
func ActorFromClaims(subject, name string, roles []string) Actor {
	return Actor{
		ID:         subject,
		Type:       "user",
		Name:       name,
		Roles:      roles,
		AuthMethod: "jwt",
	}
}

// SystemActor returns the Actor for scheduler and internal activity.
func SystemActor() Actor {
	return Actor{
		ID:   "system",
		Type: "system",
		Name: "VCarpool DR",
	}
}
