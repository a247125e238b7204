// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package audit records who did what to the backup estate.
//
// Every security-relevant action produces an Event: authentication and
// authorization decisions at the API boundary, backup and restore runs,
// catalog deletions, retention sweeps and disaster-recovery executions.
// An Event carries an actor (an operator or the scheduler itself), an
// optional target (usually a backup ID or a plan name) and the source
// of the originating request.
//
// # Event Types
//
// Access events:
//   - auth.success, auth.failure: API authentication decisions
//   - authz.denied: role checks that refused an operation
//
// Operation events:
//   - backup.completed, backup.failed, backup.deleted, backup.validated
//   - restore.completed, restore.failed
//   - retention.applied
//   - dr.executed
//
// Administrative events:
//   - config.changed, admin.action
//
// # Architecture
//
// The logger buffers writes on a channel so audit persistence never
// sits on a request path:
//
//	Logger.Log() -> buffered channel -> background writer -> Store
//
// A full buffer drops the event with a warning rather than blocking
// the caller.
//
// Two Store implementations ship with the package. BadgerStore persists
// events durably in the same BadgerDB style the backup catalog uses and
// keeps a time-ordered index so queries return newest first without a
// full scan. MemoryStore is a bounded in-memory ring for tests and for
// deployments that run with audit persistence disabled.
//
// # Usage
//
//	store, err := audit.OpenBadgerStore(dir)
//	if err != nil { ... }
//	logger := audit.NewLogger(store, nil)
//	defer logger.Close()
//
//	logger.LogBackupDeleted(ctx, actor, audit.SourceFromRequest(r), backupID)
//
// The retention routine started by StartCleanupRoutine deletes events
// older than the configured horizon once per cleanup interval.
package audit
