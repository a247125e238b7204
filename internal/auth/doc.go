// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package auth provides JWT authentication for the ops API.

The DR service has no login flow. Tokens are minted out of band with
the vcdr-token helper (or any tool that can sign an HS256 JWT with the
shared secret) and presented as a Bearer token or a "token" cookie.
Authentication is disabled by default and enabled with
VCDR_AUTH_ENABLED=true plus a VCDR_JWT_SECRET of at least 32 characters.

Key Components:

  - JWTManager: mints and validates HS256 tokens
  - JWTAuthenticator: extracts and validates tokens from requests
  - Middleware: chi middleware enforcing authentication per route group
  - AuthSubject: the normalized identity handed to authorization

Flow:

	r.Use(authMW.Authenticate)                       // 401/503 on failure
	r.With(authMW.RequireRole("admin")).Post(...)    // hard role gate

The middleware stores the AuthSubject in the request context; handlers
and the authorization layer read it with GetAuthSubject. Failed
attempts are recorded in the audit trail as auth.failure events,
successful ones as auth.success.

Role semantics are deliberately small: tokens carry a single role
claim, "admin" passes every role gate, and finer-grained route
permissions live in internal/authz on top of the subject this package
produces.
*/
package auth
