// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/authz"
	"github.com/vedprakash-m/vcarpool-dr/internal/middleware"
)

// Router wires the handlers into the HTTP route tree.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware

	// authz enforces the Casbin policy set on the API subtree. Nil when
	// authentication is disabled.
	authz *authz.Middleware

	// auditHandlers serves the audit trail endpoints. Nil hides them.
	auditHandlers *AuditHandlers

	metricsEnabled bool
}

// NewRouter creates a new router with the core routes configured.
// A nil chiMw falls back to the default middleware configuration.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}

	return &Router{
		handler:        handler,
		auth:           authMiddleware,
		chiMiddleware:  chiMw,
		metricsEnabled: true,
	}
}

// ConfigureAuthz installs Casbin policy enforcement on the API subtree.
func (router *Router) ConfigureAuthz(m *authz.Middleware) {
	router.authz = m
}

// ConfigureAudit sets up the audit handlers for the audit trail
// endpoints.
func (router *Router) ConfigureAudit(handlers *AuditHandlers) {
	router.auditHandlers = handlers
}

// ConfigureMetrics controls whether the Prometheus scrape endpoint is
// mounted.
func (router *Router) ConfigureMetrics(enabled bool) {
	router.metricsEnabled = enabled
}

// Setup configures all HTTP routes using the Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Health endpoints skip authentication so load balancers and
	// monitoring probes work before any credentials exist. Permissive
	// rate limiting still caps abuse.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus scrape endpoint. Mounted outside the compressed
	// subtree because promhttp negotiates its own encoding.
	if router.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.auth.Authenticate)
		if router.authz != nil {
			r.Use(router.authz.AuthorizeRequest)
		}

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", router.handler.ListBackups)
			r.Get("/stats", router.handler.BackupStats)
			r.With(router.chiMiddleware.RateLimitRuns()).Post("/", router.handler.CreateBackup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handler.GetBackup)
				r.Delete("/", router.handler.DeleteBackup)
				r.Post("/validate", router.handler.ValidateBackup)

				// Restores rewrite live data, so they take the operator
				// role gate on top of the policy check.
				r.With(router.auth.RequireRole("operator"), router.chiMiddleware.RateLimitRuns()).
					Post("/restore", router.handler.RestoreBackup)
			})
		})

		r.With(router.auth.RequireRole("operator"), router.chiMiddleware.RateLimitRuns()).
			Post("/retention/apply", router.handler.ApplyRetention)

		r.Route("/dr", func(r chi.Router) {
			r.Get("/plan", router.handler.DRPlan)
			r.With(router.auth.RequireRole("operator"), router.chiMiddleware.RateLimitRuns()).
				Post("/execute", router.handler.DRExecute)
		})

		if router.auditHandlers != nil {
			r.Route("/audit", func(r chi.Router) {
				r.Get("/events", router.auditHandlers.ListEvents)
				r.Get("/events/{id}", router.auditHandlers.GetEvent)
				r.Get("/stats", router.auditHandlers.GetStats)
				r.Get("/types", router.auditHandlers.GetTypes)
				r.Get("/severities", router.auditHandlers.GetSeverities)
				r.With(router.chiMiddleware.RateLimitExport()).
					Get("/export", router.auditHandlers.ExportEvents)
			})
		}
	})

	return r
}
