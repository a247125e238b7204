// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/config"
)

// setupRouterTest builds a router over the stock mocks in the requested
// auth mode. The JWT manager is returned so tests can mint tokens.
func setupRouterTest(t *testing.T, mode auth.AuthMode) (*Router, *auth.JWTManager) {
	t.Helper()

	handler := NewHandler(&mockBackupService{}, &mockOrchestrator{plan: testPlan()}, nil)

	cfg := &auth.MiddlewareConfig{Mode: mode}
	var jwtManager *auth.JWTManager
	if mode == auth.AuthModeJWT {
		var err error
		jwtManager, err = auth.NewJWTManager(&config.AuthConfig{
			JWTSecret: "test_secret_with_at_least_32_characters_for_testing",
			TokenTTL:  time.Hour,
		})
		if err != nil {
			t.Fatalf("Failed to create JWT manager: %v", err)
		}
		cfg.JWTManager = jwtManager
	}

	authMw, err := auth.NewMiddleware(cfg)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}

	return NewRouter(handler, authMw, nil), jwtManager
}

// bearerToken mints a signed token for the given role.
func bearerToken(t *testing.T, jwtManager *auth.JWTManager, username, role string) string {
	t.Helper()

	token, err := jwtManager.GenerateToken(username, role)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func TestNewRouter(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)

	if router == nil {
		t.Fatal("NewRouter returned nil")
	}
	if router.handler == nil {
		t.Error("Handler not set")
	}
	if router.chiMiddleware == nil {
		t.Error("Expected nil chi middleware to fall back to the default")
	}
	if !router.metricsEnabled {
		t.Error("Expected metrics enabled by default")
	}
	if router.auditHandlers != nil {
		t.Error("Expected audit handlers unset until configured")
	}
}

func TestRouterSetup_HealthEndpoints(t *testing.T) {
	t.Parallel()

	// Health must answer without credentials even when JWT auth guards
	// the rest of the API.
	router, _ := setupRouterTest(t, auth.AuthModeJWT)
	mux := router.Setup()

	tests := []struct {
		name string
		path string
	}{
		{"health", "/api/v1/health"},
		{"health live", "/api/v1/health/live"},
		{"health ready", "/api/v1/health/ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d", tt.name, w.Code)
			}
		})
	}
}

func TestRouterSetup_BackupEndpoints(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	tests := []struct {
		name   string
		path   string
		method string
	}{
		{"list backups", "/api/v1/backups", http.MethodGet},
		{"backup stats", "/api/v1/backups/stats", http.MethodGet},
		{"create backup", "/api/v1/backups", http.MethodPost},
		{"get backup", "/api/v1/backups/bkp-1", http.MethodGet},
		{"delete backup", "/api/v1/backups/bkp-1", http.MethodDelete},
		{"validate backup", "/api/v1/backups/bkp-1/validate", http.MethodPost},
		{"restore backup", "/api/v1/backups/bkp-1/restore", http.MethodPost},
		{"apply retention", "/api/v1/retention/apply", http.MethodPost},
		{"dr plan", "/api/v1/dr/plan", http.MethodGet},
		{"dr execute", "/api/v1/dr/execute", http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusNotFound {
				t.Errorf("%s: endpoint not found (404)", tt.name)
			}
			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("%s: method not allowed (405)", tt.name)
			}
		})
	}
}

func TestRouterSetup_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	tests := []struct {
		name   string
		path   string
		method string
	}{
		{"PUT to backups", "/api/v1/backups", http.MethodPut},
		{"DELETE to dr plan", "/api/v1/dr/plan", http.MethodDelete},
		{"GET to retention apply", "/api/v1/retention/apply", http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: expected status 405, got %d", tt.name, w.Code)
			}
		})
	}
}

func TestRouterSetup_UnknownRoute(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown route, got %d", w.Code)
	}
}

func TestRouterSetup_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /metrics, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Expected Content-Type header for metrics endpoint")
	}
}

func TestRouterSetup_MetricsDisabled(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	router.ConfigureMetrics(false)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when metrics disabled, got %d", w.Code)
	}
}

func TestRouterSetup_AuditEndpointsHiddenByDefault(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when audit not configured, got %d", w.Code)
	}
}

func TestRouterSetup_AuditEndpoints(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	router.ConfigureAudit(NewAuditHandlers(&mockAuditStore{
		events: []audit.Event{{ID: "evt-1", Type: audit.EventTypeBackupCompleted}},
		stats:  &audit.Stats{TotalEvents: 1},
	}))
	mux := router.Setup()

	tests := []struct {
		name string
		path string
	}{
		{"events", "/api/v1/audit/events"},
		{"event by id", "/api/v1/audit/events/evt-1"},
		{"stats", "/api/v1/audit/stats"},
		{"types", "/api/v1/audit/types"},
		{"severities", "/api/v1/audit/severities"},
		{"export", "/api/v1/audit/export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d", tt.name, w.Code)
			}
		})
	}
}

func TestRouterSetup_RequiresAuth(t *testing.T) {
	t.Parallel()

	router, jwtManager := setupRouterTest(t, auth.AuthModeJWT)
	mux := router.Setup()

	// Without credentials the API subtree rejects the request.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", w.Code)
	}

	// A valid token opens it up.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
	req.Header.Set("Authorization", bearerToken(t, jwtManager, "ops", "viewer"))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with valid token, got %d", w.Code)
	}
}

func TestRouterSetup_OperatorGate(t *testing.T) {
	t.Parallel()

	router, jwtManager := setupRouterTest(t, auth.AuthModeJWT)
	mux := router.Setup()

	tests := []struct {
		name           string
		path           string
		role           string
		expectedStatus int
	}{
		{"viewer cannot restore", "/api/v1/backups/bkp-1/restore", "viewer", http.StatusForbidden},
		{"operator can restore", "/api/v1/backups/bkp-1/restore", "operator", http.StatusOK},
		{"admin can restore", "/api/v1/backups/bkp-1/restore", "admin", http.StatusOK},
		{"viewer cannot apply retention", "/api/v1/retention/apply", "viewer", http.StatusForbidden},
		{"operator can apply retention", "/api/v1/retention/apply", "operator", http.StatusOK},
		{"viewer cannot execute dr", "/api/v1/dr/execute", "viewer", http.StatusForbidden},
		{"operator can execute dr", "/api/v1/dr/execute", "operator", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader("{}"))
			req.Header.Set("Authorization", bearerToken(t, jwtManager, "ops", tt.role))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s: expected status %d, got %d", tt.name, tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestRouterSetup_SecurityHeaders(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRouterSetup_CORSHeaders(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&mockBackupService{}, nil, nil)
	authMw, err := auth.NewMiddleware(&auth.MiddlewareConfig{Mode: auth.AuthModeNone})
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}

	chiMw := NewChiMiddlewareFromServer([]string{"http://localhost:3000"}, 100)
	router := NewRouter(handler, authMw, chiMw)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/backups", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
	}
}

func TestRouterSetup_RequestIDPropagated(t *testing.T) {
	t.Parallel()

	router, _ := setupRouterTest(t, auth.AuthModeNone)
	mux := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header on API responses")
	}

	resp := decodeResponse(t, w)
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Error("Expected request ID in response meta")
	}
}
