// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"errors"
	"net/http"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/dr"
)

// DRPlan handles GET /api/v1/dr/plan.
func (h *Handler) DRPlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.recovery == nil {
		rw.ServiceUnavailable(ErrCodeDRDisabled, "No recovery plan is configured")
		return
	}

	rw.Success(h.recovery.Plan())
}

// DRExecute handles POST /api/v1/dr/execute. A failed run still carries
// the partial execution result in the error details so the operator can
// see which step broke.
func (h *Handler) DRExecute(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.recovery == nil {
		rw.ServiceUnavailable(ErrCodeDRDisabled, "No recovery plan is configured")
		return
	}

	result, err := h.recovery.Execute(r.Context())

	if h.audit != nil && result != nil {
		h.audit.LogDRExecuted(r.Context(), requestActor(r), audit.SourceFromRequest(r),
			result.Plan, result.Status, result.StepsExecuted, result.StepsTotal)
	}

	if err != nil {
		if errors.Is(err, dr.ErrRunInProgress) {
			rw.Conflict(ErrCodeRunInProgress, err.Error())
			return
		}
		rw.ErrorWithDetails(http.StatusInternalServerError, "DR_FAILED", err.Error(), result)
		return
	}

	rw.Success(result)
}
