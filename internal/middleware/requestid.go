// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package middleware

import (
	"context"
	"net/http"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// RequestID assigns a unique ID to each request and adds it to both the
// response header and the request context. An X-Request-ID supplied by
// an upstream proxy is preserved. The ID is stored in the logging
// context and under audit.RequestIDKey, so log lines and audit events
// produced while serving the request can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		// Echo the ID so clients can quote it in support requests.
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), audit.RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(audit.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
