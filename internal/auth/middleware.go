// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

type contextKey string

// AuthSubjectContextKey is the context key for the AuthSubject.
const AuthSubjectContextKey contextKey = "auth_subject"

// MiddlewareConfig holds configuration for the auth middleware.
type MiddlewareConfig struct {
	// Mode selects the authentication strategy.
	Mode AuthMode

	// JWTManager is required when Mode is jwt.
	JWTManager *JWTManager

	// Audit receives auth.success and auth.failure events when set.
	Audit *audit.Logger
}

// Middleware enforces authentication on ops API routes.
type Middleware struct {
	mode          AuthMode
	authenticator Authenticator
	audit         *audit.Logger
}

// NewMiddleware creates an authentication middleware for the configured
// mode.
func NewMiddleware(cfg *MiddlewareConfig) (*Middleware, error) {
	m := &Middleware{
		mode:  cfg.Mode,
		audit: cfg.Audit,
	}

	switch cfg.Mode {
	case AuthModeNone:
		// No authenticator needed; every request passes anonymously.
	case AuthModeJWT:
		if cfg.JWTManager == nil {
			return nil, errors.New("JWT manager required for jwt auth mode")
		}
		m.authenticator = NewJWTAuthenticator(cfg.JWTManager)
	default:
		return nil, errors.New("unsupported auth mode: " + string(cfg.Mode))
	}

	return m, nil
}

// Authenticate is chi middleware that enforces authentication and
// stores the AuthSubject in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == AuthModeNone {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			m.recordFailure(r, err)
			m.handleAuthError(w, err)
			return
		}

		m.recordSuccess(r, subject)

		ctx := context.WithValue(r.Context(), AuthSubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group on a role. The admin role passes
// every gate. Restore and DR execution keep this hard gate even though
// the authorization layer also enforces policies; an over-permissive
// policy file must not be enough to rewrite production data.
// Applied after Authenticate. Open when authentication is disabled.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.mode == AuthModeNone {
				next.ServeHTTP(w, r)
				return
			}

			subject := GetAuthSubject(r.Context())
			if subject == nil {
				http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
				return
			}

			if subject.HasRole("admin") || subject.HasRole(role) {
				next.ServeHTTP(w, r)
				return
			}

			logging.Warn().
				Str("username", subject.Username).
				Str("required_role", role).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Access denied: missing required role")
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

// handleAuthError maps the standard auth errors onto HTTP statuses.
func (m *Middleware) handleAuthError(w http.ResponseWriter, err error) {
	logging.Warn().Err(err).Msg("Authentication failed")

	switch {
	case errors.Is(err, ErrNoCredentials):
		http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, "Unauthorized: invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, ErrExpiredCredentials):
		http.Error(w, "Unauthorized: credentials expired", http.StatusUnauthorized)
	case errors.Is(err, ErrAuthenticatorUnavailable):
		http.Error(w, "Service unavailable: authentication service unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Unauthorized: authentication failed", http.StatusUnauthorized)
	}
}

func (m *Middleware) recordFailure(r *http.Request, err error) {
	if m.audit == nil {
		return
	}
	m.audit.LogAuthFailure(r.Context(), "anonymous", audit.SourceFromRequest(r), err.Error())
}

func (m *Middleware) recordSuccess(r *http.Request, subject *AuthSubject) {
	if m.audit == nil {
		return
	}
	actor := audit.ActorFromClaims(subject.ID, subject.Username, subject.Roles)
	m.audit.LogAuthSuccess(r.Context(), actor, audit.SourceFromRequest(r), string(subject.AuthMethod))
}

// GetAuthSubject retrieves the AuthSubject from the request context,
// or nil for anonymous requests.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	subject, ok := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	if !ok {
		return nil
	}
	return subject
}
