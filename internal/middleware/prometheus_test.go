// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Run("passes through successful request", func(t *testing.T) {
		handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rec.Code)
		}
	})

	t.Run("passes through error response", func(t *testing.T) {
		handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/backups", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", rec.Code)
		}
	})

	t.Run("increments request counter", func(t *testing.T) {
		// A path unique to this test keeps the label set isolated.
		const path = "/prometheus-middleware-counter-test"

		counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, path, "204")
		before := testutil.ToFloat64(counter)

		handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := testutil.ToFloat64(counter); got != before+1 {
			t.Errorf("Expected counter %v, got %v", before+1, got)
		}
	})

	t.Run("labels with chi route pattern", func(t *testing.T) {
		counter := metrics.HTTPRequestsTotal.WithLabelValues(
			http.MethodGet, "/prometheus-middleware-pattern-test/{id}", "200")
		before := testutil.ToFloat64(counter)

		r := chi.NewRouter()
		r.Use(PrometheusMetrics)
		r.Get("/prometheus-middleware-pattern-test/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/prometheus-middleware-pattern-test/bkp-123", nil)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		if got := testutil.ToFloat64(counter); got != before+1 {
			t.Errorf("Expected route pattern label to be used, counter %v, got %v", before+1, got)
		}
	})

	t.Run("defaults to 200 when WriteHeader not called", func(t *testing.T) {
		handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Hello"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected default status 200, got %d", rec.Code)
		}
	})

	t.Run("tracks active requests", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})

		base := testutil.ToFloat64(metrics.HTTPActiveRequests)

		handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)
		rec := httptest.NewRecorder()

		go func() {
			handler.ServeHTTP(rec, req)
			close(done)
		}()

		<-started
		if got := testutil.ToFloat64(metrics.HTTPActiveRequests); got != base+1 {
			t.Errorf("Expected %v active requests mid-flight, got %v", base+1, got)
		}

		close(release)
		<-done

		if got := testutil.ToFloat64(metrics.HTTPActiveRequests); got != base {
			t.Errorf("Expected %v active requests after completion, got %v", base, got)
		}
	})
}

func TestStatusRecorder(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapper := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

		wrapper.WriteHeader(http.StatusNotFound)

		if wrapper.status != http.StatusNotFound {
			t.Errorf("Expected status code 404, got %d", wrapper.status)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected underlying recorder status 404, got %d", rec.Code)
		}
	})

	t.Run("preserves ResponseWriter functionality", func(t *testing.T) {
		rec := httptest.NewRecorder()
		wrapper := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

		wrapper.Header().Set("Content-Type", "application/json")
		if wrapper.Header().Get("Content-Type") != "application/json" {
			t.Error("Header should be preserved")
		}

		n, err := wrapper.Write([]byte("test body"))
		if err != nil {
			t.Errorf("Write error: %v", err)
		}
		if n != 9 {
			t.Errorf("Expected 9 bytes written, got %d", n)
		}

		if rec.Body.String() != "test body" {
			t.Errorf("Body not written: %s", rec.Body.String())
		}
	})
}

func TestRoutePattern_FallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unrouted/path", nil)

	if got := routePattern(req); got != "/unrouted/path" {
		t.Errorf("Expected raw path fallback, got %q", got)
	}
}

func BenchmarkPrometheusMetrics(b *testing.B) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backups", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}
