// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package authz provides authorization for the ops API using Casbin.
//
// This package implements Role-Based Access Control (RBAC) on top of the
// identities established by internal/auth, enforcing path-based policies
// with the Casbin authorization library. It supports role inheritance,
// decision caching, policy files with automatic reload, and extra policy
// lines supplied through configuration.
//
// # Architecture
//
// Authorization runs after authentication:
//
//	Request -> auth.Authenticate -> authz.AuthorizeRequest -> Handler
//	                |                       |
//	           token check           policy check (Casbin)
//	        (internal/auth)           (this package)
//
// # RBAC Model
//
// The embedded model matches path objects with keyMatch and treats a "*"
// policy action as matching any request action:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
//
// # Built-in Roles
//
// The embedded policy defines three roles for the backup service:
//
//	admin    every action on /api/v1/*, including backup deletion
//	operator write access: trigger backups, validate, restore, run recovery
//	viewer   read-only access to the catalog, stats, plans, and audit trail
//
// Roles inherit downward: admin covers operator, operator covers viewer.
// Tokens minted by vcdr-token carry exactly one of these role names.
//
// # Policy Definition
//
// Policies are CSV lines, either embedded, loaded from a file, or passed
// through VCDR_AUTH_POLICIES:
//
//	# Role permissions
//	p, admin, /api/v1/*, *
//	p, operator, /api/v1/*, write
//	p, viewer, /api/v1/*, read
//
//	# Role assignments
//	g, ci-export, viewer
//
// # Usage Example
//
// Creating an enforcer:
//
//	cfg := authz.DefaultEnforcerConfig()
//	cfg.ExtraPolicies = conf.Auth.Policies
//	enforcer, err := authz.NewEnforcer(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer enforcer.Close()
//
//	allowed, err := enforcer.Enforce("operator", "/api/v1/backups", "write")
//
// Using middleware with chi:
//
//	authzMW := authz.NewMiddleware(enforcer, auditLogger)
//
//	r.Route("/api/v1", func(r chi.Router) {
//	    r.Use(authMW.Authenticate)
//	    r.Use(authzMW.AuthorizeRequest)
//	    ...
//	})
//
// # HTTP Method Mapping
//
// The AuthorizeRequest middleware maps HTTP methods to actions:
//   - GET, HEAD, OPTIONS -> "read"
//   - POST, PUT, PATCH -> "write"
//   - DELETE -> "delete"
//
// # Caching
//
// The enforcer caches decisions keyed by (subject, object, action) with a
// configurable TTL. Role and policy changes invalidate affected entries.
//
// # Thread Safety
//
// All components are safe for concurrent use. Casbin's SyncedEnforcer
// provides its own synchronization, the cache uses sync.RWMutex, and
// policy auto-reload runs in a separate goroutine.
//
// # See Also
//
//   - internal/auth: authentication (runs before authorization)
//   - internal/audit: denied decisions are recorded as audit events
//   - github.com/casbin/casbin/v2: underlying authorization library
package authz
