// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// AuditStore is the read surface the audit endpoints need. Both
// audit.MemoryStore and audit.BadgerStore satisfy it.
type AuditStore interface {
	Get(ctx context.Context, id string) (*audit.Event, error)
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	GetStats(ctx context.Context) (*audit.Stats, error)
}

// AuditHandlers serves the read-only audit trail endpoints.
type AuditHandlers struct {
	store AuditStore
}

// NewAuditHandlers creates handlers backed by the given store.
func NewAuditHandlers(store AuditStore) *AuditHandlers {
	return &AuditHandlers{store: store}
}

// ListEvents handles GET /api/v1/audit/events.
func (h *AuditHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := parseAuditFilter(r)
	events, err := h.store.Query(r.Context(), filter)
	if err != nil {
		rw.InternalError("Failed to query audit events: " + err.Error())
		return
	}

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to count audit events")
		total = int64(len(events))
	}

	rw.Success(map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetEvent handles GET /api/v1/audit/events/{id}.
func (h *AuditHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	event, err := h.store.Get(r.Context(), id)
	if err != nil {
		rw.NotFound("Audit event not found: " + id)
		return
	}

	rw.Success(event)
}

// GetStats handles GET /api/v1/audit/stats.
func (h *AuditHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		rw.InternalError("Failed to compute audit stats: " + err.Error())
		return
	}

	rw.Success(stats)
}

// GetTypes handles GET /api/v1/audit/types. The list lets UIs build
// filter dropdowns without hardcoding event names.
func (h *AuditHandlers) GetTypes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success([]audit.EventType{
		audit.EventTypeAuthSuccess,
		audit.EventTypeAuthFailure,
		audit.EventTypeAuthzDenied,
		audit.EventTypeBackupCompleted,
		audit.EventTypeBackupFailed,
		audit.EventTypeBackupDeleted,
		audit.EventTypeBackupValidated,
		audit.EventTypeRestoreCompleted,
		audit.EventTypeRestoreFailed,
		audit.EventTypeRetentionApplied,
		audit.EventTypeDRExecuted,
		audit.EventTypeConfigChanged,
		audit.EventTypeAdminAction,
	})
}

// GetSeverities handles GET /api/v1/audit/severities.
func (h *AuditHandlers) GetSeverities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success([]audit.Severity{
		audit.SeverityDebug,
		audit.SeverityInfo,
		audit.SeverityWarning,
		audit.SeverityError,
		audit.SeverityCritical,
	})
}

// exportLimit caps a single export download.
const exportLimit = 10000

// ExportEvents handles GET /api/v1/audit/export. The export is a plain
// JSON array, not the API envelope, so it can be archived as-is.
func (h *AuditHandlers) ExportEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := parseAuditFilter(r)
	filter.Limit = exportLimit
	filter.Offset = 0

	events, err := h.store.Query(r.Context(), filter)
	if err != nil {
		rw.InternalError("Failed to export audit events: " + err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(events); err != nil {
		logging.Error().Err(err).Msg("Failed to encode audit export")
	}
}

// parseAuditFilter builds an audit.QueryFilter from query parameters.
func parseAuditFilter(r *http.Request) audit.QueryFilter {
	filter := audit.DefaultQueryFilter()
	q := r.URL.Query()

	if limit := getIntParam(r, "limit", filter.Limit); limit > 0 && limit <= 1000 {
		filter.Limit = limit
	}
	if offset := getIntParam(r, "offset", 0); offset > 0 {
		filter.Offset = offset
	}

	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}
	for _, s := range q["severity"] {
		filter.Severities = append(filter.Severities, audit.Severity(s))
	}
	for _, o := range q["outcome"] {
		filter.Outcomes = append(filter.Outcomes, audit.Outcome(o))
	}

	filter.ActorID = q.Get("actor_id")
	filter.TargetID = q.Get("target_id")
	filter.RequestID = q.Get("request_id")
	filter.SearchText = q.Get("search")

	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.EndTime = &t
		}
	}

	return filter
}
