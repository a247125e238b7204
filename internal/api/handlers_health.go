// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"net/http"
	"time"

	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
)

// healthStatus is the body of GET /api/v1/health.
type healthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DocstoreConnected bool    `json:"docstore_connected"`
	DRPlanLoaded      bool    `json:"dr_plan_loaded"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. The endpoint always answers 200;
// a lost document store shows up as status "degraded" rather than an
// error so dashboards can still read the rest of the fields.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := healthStatus{
		Status:        "healthy",
		Version:       backup.AppVersion,
		DRPlanLoaded:  h.recovery != nil,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if err := h.backups.Ping(r.Context()); err != nil {
		status.Status = "degraded"
	} else {
		status.DocstoreConnected = true
	}

	rw.Success(status)
}

// HealthLive handles GET /api/v1/health/live. Liveness only says the
// process is up; it must not depend on downstream services.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rw.Success(map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness gates on the
// document store because every backup and restore operation needs it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.backups.Ping(r.Context()); err != nil {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Document store is unreachable", map[string]interface{}{
				"ready":    false,
				"docstore": err.Error(),
			})
		return
	}

	rw.Success(map[string]interface{}{
		"ready": true,
	})
}
