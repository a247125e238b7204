// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
)

// CreateBackupRequest is the body for POST /api/v1/backups. All fields
// are optional; an empty body starts a full backup.
type CreateBackupRequest struct {
	// Type selects "full" (default) or "incremental".
	Type string `json:"type" validate:"omitempty,oneof=full incremental"`

	// Notes is a free-form operator annotation stored on the metadata.
	Notes string `json:"notes" validate:"max=1024"`

	// Since overrides the incremental window start. Ignored for full
	// backups; defaults to the last completed backup when omitted.
	Since *time.Time `json:"since,omitempty"`
}

// RestoreBackupRequest is the body for POST /api/v1/backups/{id}/restore.
type RestoreBackupRequest struct {
	// TargetDatabase restores into a different database, for rehearsal
	// restores. Empty means the source database.
	TargetDatabase string `json:"target_database" validate:"max=128"`

	// Collections limits the restore to a subset. Empty means all
	// collections in the backup.
	Collections []string `json:"collections,omitempty"`

	// PointInTime is advisory and recorded in the result warnings.
	PointInTime *time.Time `json:"point_in_time,omitempty"`

	// ValidateOnly verifies the archive checksum without writing
	// anything.
	ValidateOnly bool `json:"validate_only"`
}

// CreateBackup handles POST /api/v1/backups.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if !validateBody(rw, &req) {
		return
	}

	var (
		md  *backup.Metadata
		err error
	)
	switch req.Type {
	case "", string(backup.TypeFull):
		md, err = h.backups.PerformFullBackup(r.Context(), backup.TriggerAPI, req.Notes)
	case string(backup.TypeIncremental):
		md, err = h.backups.PerformIncrementalBackup(r.Context(), req.Since, backup.TriggerAPI, req.Notes)
	default:
		rw.BadRequest("Unknown backup type: " + req.Type)
		return
	}
	if err != nil {
		respondRunError(rw, err, "BACKUP_FAILED")
		return
	}

	rw.Created(md)
}

// ListBackups handles GET /api/v1/backups.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	opts := parseListOptions(r)
	backups, err := h.backups.ListBackups(r.Context(), opts)
	if err != nil {
		rw.InternalError("Failed to list backups: " + err.Error())
		return
	}

	rw.SuccessWithPagination(backups, &PaginationMeta{
		Count:   len(backups),
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: opts.Limit > 0 && len(backups) == opts.Limit,
	})
}

// GetBackup handles GET /api/v1/backups/{id}.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	md, err := h.backups.GetBackup(r.Context(), id)
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			rw.NotFound("Backup not found: " + id)
			return
		}
		rw.InternalError("Failed to load backup: " + err.Error())
		return
	}

	rw.Success(md)
}

// DeleteBackup handles DELETE /api/v1/backups/{id}.
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	if err := h.backups.DeleteBackup(r.Context(), id); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			rw.NotFound("Backup not found: " + id)
			return
		}
		rw.InternalError("Failed to delete backup: " + err.Error())
		return
	}

	if h.audit != nil {
		h.audit.LogBackupDeleted(r.Context(), requestActor(r), audit.SourceFromRequest(r), id)
	}

	rw.Success(map[string]string{
		"message": "Backup deleted",
		"id":      id,
	})
}

// ValidateBackup handles POST /api/v1/backups/{id}/validate.
func (h *Handler) ValidateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	result, err := h.backups.ValidateBackup(r.Context(), id)
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			rw.NotFound("Backup not found: " + id)
			return
		}
		rw.InternalError("Validation failed: " + err.Error())
		return
	}

	if h.audit != nil {
		h.audit.LogBackupValidated(r.Context(), requestActor(r), audit.SourceFromRequest(r),
			id, result.Valid, strings.Join(result.Errors, "; "))
	}

	rw.Success(result)
}

// RestoreBackup handles POST /api/v1/backups/{id}/restore.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RestoreBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if !validateBody(rw, &req) {
		return
	}

	opts := backup.RestoreOptions{
		BackupID:       chi.URLParam(r, "id"),
		TargetDatabase: req.TargetDatabase,
		Collections:    req.Collections,
		PointInTime:    req.PointInTime,
		ValidateOnly:   req.ValidateOnly,
	}

	result, err := h.backups.RestoreFromBackup(r.Context(), opts)

	if h.audit != nil {
		var restored, skipped int64
		if result != nil {
			restored, skipped = result.DocumentsRestored, result.DocumentsSkipped
		}
		h.audit.LogRestore(r.Context(), requestActor(r), audit.SourceFromRequest(r),
			opts.BackupID, opts.TargetDatabase, restored, skipped, err)
	}

	if err != nil {
		respondRunError(rw, err, "RESTORE_FAILED")
		return
	}

	rw.Success(result)
}

// BackupStats handles GET /api/v1/backups/stats.
func (h *Handler) BackupStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.backups.Stats(r.Context())
	if err != nil {
		rw.InternalError("Failed to compute backup stats: " + err.Error())
		return
	}

	rw.Success(stats)
}

// ApplyRetention handles POST /api/v1/retention/apply.
func (h *Handler) ApplyRetention(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	result, err := h.backups.ApplyRetention(r.Context())
	if err != nil {
		respondRunError(rw, err, "RETENTION_FAILED")
		return
	}

	if h.audit != nil {
		h.audit.LogRetentionApplied(r.Context(), requestActor(r), audit.SourceFromRequest(r),
			result.Deleted, false)
	}

	rw.Success(result)
}

// parseListOptions builds backup.ListOptions from query parameters.
// Defaults: newest first, limit 100.
func parseListOptions(r *http.Request) backup.ListOptions {
	q := r.URL.Query()

	opts := backup.ListOptions{
		Limit:    getIntParam(r, "limit", 100),
		Offset:   getIntParam(r, "offset", 0),
		SortDesc: true,
	}
	if strings.EqualFold(q.Get("sort"), "asc") {
		opts.SortDesc = false
	}

	if v := q.Get("type"); v != "" {
		t := backup.BackupType(v)
		opts.Type = &t
	}
	if v := q.Get("status"); v != "" {
		s := backup.BackupStatus(v)
		opts.Status = &s
	}
	if v := q.Get("trigger"); v != "" {
		tr := backup.BackupTrigger(v)
		opts.Trigger = &tr
	}
	opts.StartDate = getTimeParam(r, "start_date")
	opts.EndDate = getTimeParam(r, "end_date")

	return opts
}
