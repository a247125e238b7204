// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vedprakash-m/vcarpool-dr/internal/dr"
)

func testPlan() *dr.Plan {
	return &dr.Plan{
		Name: "regional-outage",
		RTO:  dr.Duration(4 * time.Hour),
		RPO:  dr.Duration(24 * time.Hour),
		Steps: []dr.RecoveryStep{
			{ID: "assess-damage", Description: "Confirm scope of the outage", Automated: false},
			{ID: "restore-data", Automated: true, Script: "/usr/local/bin/vcdr-restore --latest"},
		},
	}
}

func TestDRPlan(t *testing.T) {
	t.Parallel()

	t.Run("no plan configured", func(t *testing.T) {
		handler := setupTestHandler(t, &mockBackupService{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/dr/plan", nil)
		w := httptest.NewRecorder()
		handler.DRPlan(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}

		resp := decodeResponse(t, w)
		if resp.Error == nil || resp.Error.Code != ErrCodeDRDisabled {
			t.Errorf("expected %s error code, got %+v", ErrCodeDRDisabled, resp.Error)
		}
	})

	t.Run("plan returned", func(t *testing.T) {
		orch := &mockOrchestrator{plan: testPlan()}
		handler := setupTestHandler(t, &mockBackupService{}, orch)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/dr/plan", nil)
		w := httptest.NewRecorder()
		handler.DRPlan(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		resp := decodeResponse(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatal("expected data to be a map")
		}
		if data["name"] != "regional-outage" {
			t.Errorf("expected plan name in response, got %v", data["name"])
		}
		if data["rto"] != "4h0m0s" {
			t.Errorf("expected human-readable RTO, got %v", data["rto"])
		}
	})
}

func TestDRExecute(t *testing.T) {
	t.Parallel()

	t.Run("no plan configured", func(t *testing.T) {
		handler := setupTestHandler(t, &mockBackupService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/dr/execute", nil)
		w := httptest.NewRecorder()
		handler.DRExecute(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		orch := &mockOrchestrator{
			plan: testPlan(),
			executeFunc: func(ctx context.Context) (*dr.ExecutionResult, error) {
				return &dr.ExecutionResult{
					Plan:          "regional-outage",
					Status:        dr.StatusCompleted,
					StepsTotal:    2,
					StepsExecuted: 2,
					HealthOK:      true,
				}, nil
			},
		}
		handler := setupTestHandler(t, &mockBackupService{}, orch)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/dr/execute", nil)
		w := httptest.NewRecorder()
		handler.DRExecute(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := decodeResponse(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatal("expected data to be a map")
		}
		if data["status"] != dr.StatusCompleted {
			t.Errorf("expected completed status, got %v", data["status"])
		}
	})

	t.Run("already running", func(t *testing.T) {
		orch := &mockOrchestrator{
			plan: testPlan(),
			executeFunc: func(ctx context.Context) (*dr.ExecutionResult, error) {
				return nil, dr.ErrRunInProgress
			},
		}
		handler := setupTestHandler(t, &mockBackupService{}, orch)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/dr/execute", nil)
		w := httptest.NewRecorder()
		handler.DRExecute(w, req)

		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}

		resp := decodeResponse(t, w)
		if resp.Error == nil || resp.Error.Code != ErrCodeRunInProgress {
			t.Errorf("expected %s error code, got %+v", ErrCodeRunInProgress, resp.Error)
		}
	})

	t.Run("failed run carries partial result", func(t *testing.T) {
		orch := &mockOrchestrator{
			plan: testPlan(),
			executeFunc: func(ctx context.Context) (*dr.ExecutionResult, error) {
				return &dr.ExecutionResult{
					Plan:          "regional-outage",
					Status:        dr.StatusFailed,
					StepsTotal:    2,
					StepsExecuted: 1,
					FailedStep:    "restore-data",
					Error:         "exit status 1",
				}, errors.New(`recovery step "restore-data" failed: exit status 1`)
			},
		}
		handler := setupTestHandler(t, &mockBackupService{}, orch)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/dr/execute", nil)
		w := httptest.NewRecorder()
		handler.DRExecute(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}

		resp := decodeResponse(t, w)
		if resp.Error == nil || resp.Error.Code != "DR_FAILED" {
			t.Fatalf("expected DR_FAILED error code, got %+v", resp.Error)
		}

		details, ok := resp.Error.Details.(map[string]interface{})
		if !ok {
			t.Fatal("expected partial execution result in error details")
		}
		if details["failed_step"] != "restore-data" {
			t.Errorf("expected failed step in details, got %v", details["failed_step"])
		}
	})
}
