// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package backup

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// BackupType defines the kind of snapshot a run produces
type BackupType string

const (
	// TypeFull captures every collection in every visible database
	TypeFull BackupType = "full"

	// TypeIncremental captures documents modified since a reference timestamp
	TypeIncremental BackupType = "incremental"
)

// BackupStatus represents the current state of a backup run
type BackupStatus string

const (
	// StatusInProgress indicates the run is currently executing
	StatusInProgress BackupStatus = "in_progress"

	// StatusCompleted indicates the run finished successfully
	StatusCompleted BackupStatus = "completed"

	// StatusFailed indicates the run failed; Error carries the cause
	StatusFailed BackupStatus = "failed"
)

// BackupTrigger indicates what initiated the run
type BackupTrigger string

const (
	// TriggerManual indicates an operator-initiated run
	TriggerManual BackupTrigger = "manual"

	// TriggerScheduled indicates the run came from a scheduler tick
	TriggerScheduled BackupTrigger = "scheduled"

	// TriggerAPI indicates the run was requested through the ops API
	TriggerAPI BackupTrigger = "api"
)

var (
	// ErrBackupNotFound is returned when no catalog entry exists for an ID.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrBackupExists is returned when appending a record whose ID is
	// already in the catalog.
	ErrBackupExists = errors.New("backup already exists")

	// ErrChecksumMismatch is the integrity error raised when a stored
	// artifact's recomputed digest differs from the recorded one. It is
	// distinct from storage errors so callers can react to corruption.
	ErrChecksumMismatch = errors.New("backup checksum mismatch")

	// ErrInvalidTransition is returned when a status update would leave a
	// terminal state or skip in_progress.
	ErrInvalidTransition = errors.New("invalid backup status transition")

	// ErrRunInProgress is returned when a run of the same kind is already
	// executing; the caller should retry after it finishes.
	ErrRunInProgress = errors.New("a run of this kind is already in progress")
)

// Metadata describes one backup run. A record is created with
// StatusInProgress when the run starts and mutated exactly once at run end.
type Metadata struct {
	// Unique identifier for the run
	ID string `json:"id"`

	// Type of backup (full, incremental)
	Type BackupType `json:"type"`

	// Current status of the run
	Status BackupStatus `json:"status"`

	// What triggered this run
	Trigger BackupTrigger `json:"trigger"`

	// When the run started
	CreatedAt time.Time `json:"created_at"`

	// When the run reached a terminal state
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Duration of the run
	Duration time.Duration `json:"duration"`

	// Size in bytes of the serialized manifest (plaintext); 0 for an
	// incremental run that captured nothing
	SizeBytes int64 `json:"size_bytes"`

	// Collection names captured by the run, deduplicated and sorted.
	// Empty for an incremental run with no changes.
	Collections []string `json:"collections"`

	// Total documents captured across all collections
	DocumentCount int64 `json:"document_count"`

	// SHA-256 hex digest of the serialized manifest (plaintext); empty for
	// an incremental run that captured nothing
	Checksum string `json:"checksum"`

	// Whether artifacts were written through the encrypting store
	Encrypted bool `json:"encrypted"`

	// Operator label of the encryption key in use, if any
	EncryptionKeyID string `json:"encryption_key_id,omitempty"`

	// Reference timestamp of an incremental run
	Since *time.Time `json:"since,omitempty"`

	// Operator-provided notes
	Notes string `json:"notes,omitempty"`

	// Error message if the run failed
	Error string `json:"error,omitempty"`

	// Application version at run time
	AppVersion string `json:"app_version"`
}

// Clone returns a deep copy so catalog callers cannot mutate stored state.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	clone := *m
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		clone.CompletedAt = &t
	}
	if m.Since != nil {
		t := *m.Since
		clone.Since = &t
	}
	if m.Collections != nil {
		clone.Collections = append([]string(nil), m.Collections...)
	}
	return &clone
}

// Terminal reports whether the record has reached a final status.
func (m *Metadata) Terminal() bool {
	return m.Status == StatusCompleted || m.Status == StatusFailed
}

// validTransition enforces the status lifecycle: in_progress may move to
// any status including itself, terminal states never change.
func validTransition(from, to BackupStatus) error {
	if from != StatusInProgress {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	switch to {
	case StatusInProgress, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
}

// Manifest is the top-level artifact written at key <backupID>. Its
// serialized size and SHA-256 digest are what Metadata records.
type Manifest struct {
	// Backup run this manifest belongs to
	BackupID string `json:"backup_id"`

	// Type of the run
	Type BackupType `json:"type"`

	// When the run started
	CreatedAt time.Time `json:"created_at"`

	// Reference timestamp of an incremental run
	Since *time.Time `json:"since,omitempty"`

	// Databases captured, in enumeration order
	Databases []DatabaseManifest `json:"databases"`
}

// DatabaseManifest lists the collections captured from one database.
type DatabaseManifest struct {
	// Database name
	Name string `json:"name"`

	// Collections captured from this database
	Collections []CollectionManifest `json:"collections"`
}

// CollectionManifest records one collection artifact.
type CollectionManifest struct {
	// Collection name
	Name string `json:"name"`

	// Artifact key (<backupID>/<database>/<collection>)
	ArtifactKey string `json:"artifact_key"`

	// Number of documents in the artifact
	DocumentCount int `json:"document_count"`

	// Size in bytes of the serialized document array (plaintext)
	SizeBytes int64 `json:"size_bytes"`

	// SHA-256 hex digest of the serialized document array (plaintext)
	Checksum string `json:"checksum"`
}

// CollectionNames returns the distinct collection names across all
// databases, sorted, for Metadata.Collections.
func (m *Manifest) CollectionNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, db := range m.Databases {
		for _, coll := range db.Collections {
			if !seen[coll.Name] {
				seen[coll.Name] = true
				names = append(names, coll.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// DocumentCount returns the total documents recorded across the manifest.
func (m *Manifest) DocumentCount() int64 {
	var total int64
	for _, db := range m.Databases {
		for _, coll := range db.Collections {
			total += int64(coll.DocumentCount)
		}
	}
	return total
}

// ListOptions filters and paginates catalog listings.
type ListOptions struct {
	// Filter by backup type
	Type *BackupType `json:"type,omitempty"`

	// Filter by backup status
	Status *BackupStatus `json:"status,omitempty"`

	// Filter by trigger
	Trigger *BackupTrigger `json:"trigger,omitempty"`

	// Filter by creation date range
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Pagination
	Limit  int `json:"limit"`
	Offset int `json:"offset"`

	// Sort newest first when true
	SortDesc bool `json:"sort_desc"`
}

// RestoreOptions configures a restore run.
type RestoreOptions struct {
	// Backup to restore
	BackupID string `json:"backup_id" validate:"required"`

	// Override the target database; empty restores each collection into
	// its origin database
	TargetDatabase string `json:"target_database,omitempty"`

	// Restrict the restore to these collections; empty restores all
	Collections []string `json:"collections,omitempty"`

	// Advisory point-in-time hint; logged, never used for filtering
	PointInTime *time.Time `json:"point_in_time,omitempty"`

	// Verify the manifest checksum without touching the database
	ValidateOnly bool `json:"validate_only"`
}

// RestoreResult summarizes a restore run.
type RestoreResult struct {
	// Backup that was restored or validated
	BackupID string `json:"backup_id"`

	// Whether this was a validate-only run
	ValidateOnly bool `json:"validate_only"`

	// Collections written to the target
	CollectionsRestored int `json:"collections_restored"`

	// Documents upserted successfully
	DocumentsRestored int64 `json:"documents_restored"`

	// Documents skipped after individual upsert failures
	DocumentsSkipped int64 `json:"documents_skipped"`

	// Duration of the run
	Duration time.Duration `json:"duration"`

	// Warnings accumulated during the run
	Warnings []string `json:"warnings,omitempty"`
}

// Stats is the catalog metrics summary.
type Stats struct {
	// Total number of catalog entries
	TotalBackups int `json:"total_backups"`

	// Aggregate manifest size of completed backups
	CompletedSizeBytes int64 `json:"completed_size_bytes"`

	// Creation time of the most recent completed full backup
	LastFullBackup *time.Time `json:"last_full_backup,omitempty"`

	// Creation time of the most recent completed incremental backup
	LastIncrementalBackup *time.Time `json:"last_incremental_backup,omitempty"`

	// Completed entries over total entries; 0 for an empty catalog
	SuccessRate float64 `json:"success_rate"`

	// Breakdown by status
	CountByStatus map[BackupStatus]int `json:"count_by_status"`

	// Breakdown by type
	CountByType map[BackupType]int `json:"count_by_type"`
}

// ValidationResult reports an integrity check of a stored backup.
type ValidationResult struct {
	// Whether every check passed
	Valid bool `json:"valid"`

	// Backup that was checked
	BackupID string `json:"backup_id"`

	// Status of the catalog entry
	Status BackupStatus `json:"status"`

	// Whether the manifest digest matched the recorded checksum
	ChecksumValid bool `json:"checksum_valid"`

	// Recorded checksum
	ExpectedChecksum string `json:"expected_checksum"`

	// Recomputed checksum
	ActualChecksum string `json:"actual_checksum"`

	// Collection artifacts verified
	ArtifactCount int `json:"artifact_count"`

	// Artifact keys listed in the manifest but missing from storage
	MissingArtifacts []string `json:"missing_artifacts,omitempty"`

	// Artifact keys whose recomputed digest differed from the manifest
	CorruptArtifacts []string `json:"corrupt_artifacts,omitempty"`

	// Validation errors
	Errors []string `json:"errors,omitempty"`
}

// RetentionResult summarizes one retention sweep.
type RetentionResult struct {
	// When the sweep ran
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Enforced cutoff: backups created strictly before it are deleted
	DailyCutoff time.Time `json:"daily_cutoff"`

	// Computed but advisory cutoffs, logged for operators
	WeeklyCutoff  time.Time `json:"weekly_cutoff"`
	MonthlyCutoff time.Time `json:"monthly_cutoff"`

	// Backups removed
	Deleted int `json:"deleted"`

	// IDs of removed backups
	DeletedIDs []string `json:"deleted_ids,omitempty"`

	// Aggregate manifest size of removed backups
	DeletedSizeBytes int64 `json:"deleted_size_bytes"`

	// Artifact objects removed across all deleted backups
	ArtifactsRemoved int `json:"artifacts_removed"`
}
