// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current envelope schema version. Increment on
// breaking changes to Event; consumers tolerate older versions.
const SchemaVersion = 1

// ServiceName identifies this service in published envelopes.
const ServiceName = "vcarpool-dr"

// Topic suffixes for lifecycle events. The configured subject prefix is
// prepended on publish.
const (
	TopicBackupCompleted  = "backup.completed"
	TopicBackupFailed     = "backup.failed"
	TopicRestoreCompleted = "restore.completed"
	TopicDRExecuted       = "dr.executed"
)

// Event is the envelope wrapping every published payload.
type Event struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// EventID doubles as the NATS message ID for deduplication
	EventID string `json:"event_id"`

	// Type is the topic suffix, for example "backup.completed"
	Type string `json:"type"`

	// Service is always ServiceName; consumers share streams
	Service string `json:"service"`

	// Timestamp is when the event was created
	Timestamp time.Time `json:"timestamp"`

	// Payload is the domain body (BackupEvent, RestoreEvent, DREvent)
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent returns an envelope with a fresh ID and timestamp.
func NewEvent(eventType string, payload json.RawMessage) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          eventType,
		Service:       ServiceName,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}

// Validate checks required envelope fields.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if e.Type == "" {
		return errors.New("type is required")
	}
	if e.Service == "" {
		return errors.New("service is required")
	}
	if e.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}

// Subject returns the full NATS subject for this event.
func (e *Event) Subject(prefix string) string {
	if prefix == "" {
		return e.Type
	}
	return prefix + "." + e.Type
}

// MarshalEvent validates and serializes an envelope.
func MarshalEvent(e *Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent deserializes an envelope.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	return &e, nil
}

// BackupEvent is the payload for backup.completed and backup.failed.
type BackupEvent struct {
	BackupID      string `json:"backup_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Trigger       string `json:"trigger"`
	SizeBytes     int64  `json:"size_bytes"`
	DocumentCount int64  `json:"document_count"`
	Collections   int    `json:"collections"`
	DurationMS    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

// RestoreEvent is the payload for restore.completed.
type RestoreEvent struct {
	BackupID            string `json:"backup_id"`
	ValidateOnly        bool   `json:"validate_only"`
	CollectionsRestored int    `json:"collections_restored"`
	DocumentsRestored   int64  `json:"documents_restored"`
	DocumentsSkipped    int64  `json:"documents_skipped"`
	DurationMS          int64  `json:"duration_ms"`
	Warnings            int    `json:"warnings"`
}

// DREvent is the payload for dr.executed.
type DREvent struct {
	Plan          string `json:"plan"`
	Status        string `json:"status"`
	StepsExecuted int    `json:"steps_executed"`
	StepsTotal    int    `json:"steps_total"`
	DurationMS    int64  `json:"duration_ms"`
	RTOExceeded   bool   `json:"rto_exceeded"`
	Error         string `json:"error,omitempty"`
}
