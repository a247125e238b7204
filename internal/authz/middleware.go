// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package authz

import (
	"net/http"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// Middleware enforces Casbin policies on ops API requests. Denied
// requests are recorded in the audit trail when an audit logger is
// configured.
//
// Mount after auth.Middleware.Authenticate: requests that carry no
// authentication context are refused.
type Middleware struct {
	enforcer *Enforcer
	audit    *audit.Logger
}

// NewMiddleware creates authorization middleware. auditLogger may be nil.
func NewMiddleware(enforcer *Enforcer, auditLogger *audit.Logger) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		audit:    auditLogger,
	}
}

// Authorize enforces a fixed object and action regardless of the request
// URL. Use it for routes whose protected resource is not the path itself.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(w, r, object, action) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthorizeRequest derives the action from the HTTP method and the
// object from the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(w, r, r.URL.Path, methodToAction(r.Method)) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow runs the enforcement check and writes the refusal response when
// the request may not proceed.
func (m *Middleware) allow(w http.ResponseWriter, r *http.Request, object, action string) bool {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
		return false
	}

	allowed, err := m.enforcer.EnforceWithRoles(subject.ID, subject.Roles, object, action)
	if err != nil {
		logging.Error().Err(err).Msg("Authorization error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}

	if !allowed {
		m.recordDenial(r, subject, object, action)
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return false
	}

	return true
}

// recordDenial logs and audits a refused authorization check.
func (m *Middleware) recordDenial(r *http.Request, subject *auth.AuthSubject, object, action string) {
	logging.Warn().
		Str("username", subject.Username).
		Str("resource", object).
		Str("action", action).
		Msg("Authorization denied")

	if m.audit == nil {
		return
	}
	actor := audit.ActorFromClaims(subject.ID, subject.Username, subject.Roles)
	m.audit.LogAuthzDenied(r.Context(), actor, audit.SourceFromRequest(r), object, action)
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
