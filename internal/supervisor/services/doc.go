// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package services provides suture.Service wrappers for the components that
the supervisor tree manages.

Each wrapper adapts a component's native lifecycle to suture's
Serve(ctx) contract:

  - HTTPServerService: blocking ListenAndServe with graceful Shutdown
  - EventsServerService: embedded NATS server health watch and shutdown
  - BadgerGCService: periodic BadgerDB value log garbage collection
  - AuditCleanupService: periodic audit retention sweeps

The backup scheduler's IntervalService timers implement suture.Service
directly (see internal/backup) and register on the tree without a
wrapper.

Wrappers depend on narrow interfaces rather than concrete types so tests
can substitute doubles and no import cycles form against the packages
they wrap.
*/
package services
