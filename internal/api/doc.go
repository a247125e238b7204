// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package api exposes the ops HTTP API over a chi router.

# Surface

All responses share one envelope (see response.go): success carries the
payload under "data", failure carries a machine-readable code and message
under "error", and both carry request metadata for tracing.

	GET  /api/v1/health            overall health summary
	GET  /api/v1/health/live       liveness probe, process only
	GET  /api/v1/health/ready      readiness probe, checks the document store

	GET    /api/v1/backups               list catalog entries, filtered and paginated
	POST   /api/v1/backups               trigger a full or incremental run
	GET    /api/v1/backups/stats         catalog statistics
	GET    /api/v1/backups/{id}          one catalog entry
	DELETE /api/v1/backups/{id}          delete artifacts and the catalog entry
	POST   /api/v1/backups/{id}/validate checksum and artifact verification
	POST   /api/v1/backups/{id}/restore  restore into the document store

	POST /api/v1/retention/apply   run one retention sweep

	GET  /api/v1/dr/plan           the loaded recovery plan
	POST /api/v1/dr/execute        run the recovery plan

	GET  /api/v1/audit/events      query the audit trail
	GET  /api/v1/audit/events/{id} one audit event
	GET  /api/v1/audit/stats       audit trail statistics
	GET  /api/v1/audit/types       known event types
	GET  /api/v1/audit/severities  known severity levels
	GET  /api/v1/audit/export      download events as a JSON attachment

	GET /metrics                   prometheus scrape endpoint

# Middleware stack

Every request passes request-ID stamping, RealIP, panic recovery and
CORS. The /api/v1 tree additionally gets rate limiting, security
headers, gzip compression and prometheus instrumentation. When
authentication is enabled, auth.Middleware.Authenticate and
authz.Middleware.AuthorizeRequest guard the tree; restore, retention
and DR execution carry an extra RequireRole("operator") gate on top of
the policy check.

# Status mapping

Service errors map onto statuses the same way everywhere: unknown
backup IDs are 404, a run of the same kind already executing is 409,
a checksum mismatch is 422, request decoding and validation failures
are 400, and everything else is 500. Run-triggering endpoints are rate
limited harder than reads because each call can move gigabytes.
*/
package api
