// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package middleware provides HTTP middleware for the ops API.

The middleware here is chi-compatible (func(http.Handler) http.Handler)
and is mounted by internal/api when the router is assembled. CORS and
rate limiting come from the chi ecosystem (go-chi/cors, go-chi/httprate)
and are configured directly in the router; this package holds the
middleware that needs access to internal packages.

Key Components:

  - RequestID: UUID request tracking for logs and audit events
  - PrometheusMetrics: request counters, latency histograms, in-flight gauge
  - Compression: gzip for catalog listings and audit query responses

Stack Order:

The router applies middleware outermost first:

	r.Use(middleware.RequestID)          // tracing first, everything logs with it
	r.Use(middleware.PrometheusMetrics)  // timing covers auth and handlers
	r.Use(middleware.Compression)        // wraps the response body writer

The /metrics endpoint is mounted outside the Compression middleware
because promhttp negotiates its own gzip encoding.

Request Tracking:

RequestID honors an X-Request-ID header set by an upstream proxy and
generates a UUID when absent. The ID is placed in the response header,
the zerolog context (request_id), and under audit.RequestIDKey so audit
events emitted while serving the request carry it.

Metrics:

PrometheusMetrics labels requests with the chi route pattern, for
example /api/v1/backups/{id}, rather than the raw URL. Backup IDs in
paths would otherwise grow the label space without bound. Requests
slower than one second are also logged at warn level.
*/
package middleware
