// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// slowRequestThreshold is the latency above which a request is logged at
// warn level. Catalog and audit queries should finish far below this;
// backup and restore triggers return immediately and run in background.
const slowRequestThreshold = time.Second

// PrometheusMetrics instruments requests with the ops API metrics:
// the in-flight gauge, per-route request counters, and latency
// histograms.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()

		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		// Label with the chi route pattern (/api/v1/backups/{id}), not
		// the raw URL, so backup IDs do not grow label cardinality.
		metrics.RecordHTTPRequest(r.Method, routePattern(r), wrapper.status, duration)

		if duration > slowRequestThreshold {
			logging.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.status).
				Dur("duration", duration).
				Msg("Slow request")
		}
	})
}

// routePattern returns the matched chi route pattern, falling back to
// the raw path for requests that never matched a route.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and forwards it.
func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
