// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package audit

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Access events
	EventTypeAuthSuccess EventType = "auth.success"
	EventTypeAuthFailure EventType = "auth.failure"
	EventTypeAuthzDenied EventType = "authz.denied"

	// Backup lifecycle events
	EventTypeBackupCompleted EventType = "backup.completed"
	EventTypeBackupFailed    EventType = "backup.failed"
	EventTypeBackupDeleted   EventType = "backup.deleted"
	EventTypeBackupValidated EventType = "backup.validated"

	// Restore events
	EventTypeRestoreCompleted EventType = "restore.completed"
	EventTypeRestoreFailed    EventType = "restore.failed"

	// Retention events
	EventTypeRetentionApplied EventType = "retention.applied"

	// Disaster recovery events
	EventTypeDRExecuted EventType = "dr.executed"

	// Administrative events
	EventTypeConfigChanged EventType = "config.changed"
	EventTypeAdminAction   EventType = "admin.action"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)

// Event is one audit trail entry.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Severity of the event.
	Severity Severity `json:"severity"`

	// Outcome indicates success or failure.
	Outcome Outcome `json:"outcome"`

	// Actor who performed the action.
	Actor Actor `json:"actor"`

	// Target of the action, usually a backup ID or plan name.
	Target *Target `json:"target,omitempty"`

	// Source of the request.
	Source Source `json:"source"`

	// Action is the verb: authenticate, delete, restore, execute.
	Action string `json:"action"`

	// Description provides human-readable detail.
	Description string `json:"description"`

	// Metadata carries event-specific fields.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// CorrelationID links related events, e.g. a restore to the backup
	// it replayed.
	CorrelationID string `json:"correlation_id,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`
}

// Actor represents who performed an action.
type Actor struct {
	// ID is the unique identifier (subject claim or service name).
	ID string `json:"id"`

	// Type of actor: user, service or system.
	Type string `json:"type"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// Roles assigned to the actor.
	Roles []string `json:"roles,omitempty"`

	// AuthMethod used, jwt for operators.
	AuthMethod string `json:"auth_method,omitempty"`
}

// Target represents the object of an action.
type Target struct {
	// ID of the target resource.
	ID string `json:"id"`

	// Type of target: backup, plan, collection, config.
	Type string `json:"type"`

	// Name of the target.
	Name string `json:"name,omitempty"`
}

// Source represents where a request originated.
type Source struct {
	// IPAddress of the client.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent of the client.
	UserAgent string `json:"user_agent,omitempty"`

	// Hostname if available.
	Hostname string `json:"hostname,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query retrieves events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// GetStats summarizes the stored events.
	GetStats(ctx context.Context) (*Stats, error)

	// Delete removes events older than the given time and reports how
	// many were removed.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries. Zero fields
// match everything.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty"`

	// Severities filters by severity levels.
	Severities []Severity `json:"severities,omitempty"`

	// Outcomes filters by outcome.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	// ActorID filters by actor ID.
	ActorID string `json:"actor_id,omitempty"`

	// TargetID filters by target ID.
	TargetID string `json:"target_id,omitempty"`

	// StartTime is the beginning of the time range, inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range, inclusive.
	EndTime *time.Time `json:"end_time,omitempty"`

	// RequestID filters by request ID.
	RequestID string `json:"request_id,omitempty"`

	// SearchText matches against description and action,
	// case-insensitive.
	SearchText string `json:"search_text,omitempty"`

	// Limit is the maximum number of results. Zero means no limit.
	Limit int `json:"limit,omitempty"`

	// Offset skips that many matches for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns the filter the API uses when the caller
// passes no parameters.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// matches reports whether the event satisfies every criterion.
//
//nolint:gocyclo // complexity inherent to multi-criteria filter matching
func (f *QueryFilter) matches(event *Event) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, event.Type) {
		return false
	}
	if len(f.Severities) > 0 && !slices.Contains(f.Severities, event.Severity) {
		return false
	}
	if len(f.Outcomes) > 0 && !slices.Contains(f.Outcomes, event.Outcome) {
		return false
	}

	if f.ActorID != "" && event.Actor.ID != f.ActorID {
		return false
	}
	if f.TargetID != "" {
		if event.Target == nil || event.Target.ID != f.TargetID {
			return false
		}
	}

	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}

	if f.RequestID != "" && event.RequestID != f.RequestID {
		return false
	}

	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		if !strings.Contains(strings.ToLower(event.Description), needle) &&
			!strings.Contains(strings.ToLower(event.Action), needle) {
			return false
		}
	}

	return true
}

// Stats summarizes the contents of an audit store.
type Stats struct {
	TotalEvents      int64            `json:"total_events"`
	EventsByType     map[string]int64 `json:"events_by_type"`
	EventsBySeverity map[string]int64 `json:"events_by_severity"`
	EventsByOutcome  map[string]int64 `json:"events_by_outcome"`
	OldestEvent      *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time       `json:"newest_event,omitempty"`
}

func newStats() *Stats {
	return &Stats{
		EventsByType:     make(map[string]int64),
		EventsBySeverity: make(map[string]int64),
		EventsByOutcome:  make(map[string]int64),
	}
}

// observe folds one event into the summary.
func (s *Stats) observe(event *Event) {
	s.TotalEvents++
	s.EventsByType[string(event.Type)]++
	s.EventsBySeverity[string(event.Severity)]++
	s.EventsByOutcome[string(event.Outcome)]++

	if s.OldestEvent == nil || event.Timestamp.Before(*s.OldestEvent) {
		t := event.Timestamp
		s.OldestEvent = &t
	}
	if s.NewestEvent == nil || event.Timestamp.After(*s.NewestEvent) {
		t := event.Timestamp
		s.NewestEvent = &t
	}
}
