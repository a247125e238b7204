// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
	"github.com/vedprakash-m/vcarpool-dr/internal/dr"
	"github.com/vedprakash-m/vcarpool-dr/internal/validation"
)

// BackupService is the backup facade the handlers call. *backup.Service
// satisfies it; tests substitute a mock.
type BackupService interface {
	PerformFullBackup(ctx context.Context, trigger backup.BackupTrigger, notes string) (*backup.Metadata, error)
	PerformIncrementalBackup(ctx context.Context, since *time.Time, trigger backup.BackupTrigger, notes string) (*backup.Metadata, error)
	RestoreFromBackup(ctx context.Context, opts backup.RestoreOptions) (*backup.RestoreResult, error)
	ValidateBackup(ctx context.Context, id string) (*backup.ValidationResult, error)
	ApplyRetention(ctx context.Context) (*backup.RetentionResult, error)
	ListBackups(ctx context.Context, opts backup.ListOptions) ([]*backup.Metadata, error)
	GetBackup(ctx context.Context, id string) (*backup.Metadata, error)
	Stats(ctx context.Context) (*backup.Stats, error)
	DeleteBackup(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// RecoveryOrchestrator executes the loaded disaster-recovery plan.
// *dr.Orchestrator satisfies it.
type RecoveryOrchestrator interface {
	Plan() *dr.Plan
	Execute(ctx context.Context) (*dr.ExecutionResult, error)
}

// Handler holds the request handlers for the ops API.
type Handler struct {
	backups BackupService

	// recovery is nil when no plan file is configured; the DR endpoints
	// then answer 503.
	recovery RecoveryOrchestrator

	// audit receives operator-initiated mutations. May be nil.
	audit *audit.Logger

	startTime time.Time
}

// NewHandler creates the handler set. recovery and auditLogger may be
// nil when those subsystems are disabled.
func NewHandler(backups BackupService, recovery RecoveryOrchestrator, auditLogger *audit.Logger) *Handler {
	return &Handler{
		backups:   backups,
		recovery:  recovery,
		audit:     auditLogger,
		startTime: time.Now(),
	}
}

// respondRunError maps the backup package's sentinel errors onto HTTP
// statuses. failCode labels errors with no more specific mapping.
func respondRunError(rw *ResponseWriter, err error, failCode string) {
	switch {
	case errors.Is(err, backup.ErrBackupNotFound):
		rw.NotFound("Backup not found")
	case errors.Is(err, backup.ErrRunInProgress):
		rw.Conflict(ErrCodeRunInProgress, err.Error())
	case errors.Is(err, backup.ErrChecksumMismatch):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeChecksumMismatch, err.Error())
	default:
		rw.Error(http.StatusInternalServerError, failCode, err.Error())
	}
}

// requestActor identifies who is making the request for the audit
// trail. Deployments running with authentication disabled show up as
// anonymous.
func requestActor(r *http.Request) audit.Actor {
	if subject := auth.GetAuthSubject(r.Context()); subject != nil {
		return audit.ActorFromClaims(subject.ID, subject.Username, subject.Roles)
	}
	return audit.Actor{ID: "anonymous", Type: "user"}
}

// validateBody runs struct validation and writes a 400 on failure.
// Returns true when the request may proceed.
func validateBody(rw *ResponseWriter, v interface{}) bool {
	serr := validation.ValidateStruct(v)
	if serr == nil {
		return true
	}

	details := make([]string, 0, len(serr.Errors()))
	for i := range serr.Errors() {
		details = append(details, serr.Errors()[i].Error())
	}
	rw.ValidationError("Request validation failed", details)
	return false
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getTimeParam extracts an RFC3339 query parameter, nil when absent or
// unparseable.
func getTimeParam(r *http.Request, key string) *time.Time {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
