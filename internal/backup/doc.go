// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package backup implements backup, restore and retention for the VCarpool
// document store.
//
// The package is built from small collaborating pieces:
//   - Catalog:          ordered ledger of backup metadata with enforced
//     status transitions, backed by a pluggable CatalogStore (memory or
//     BadgerDB).
//   - Engine:           executes one full or incremental run against the
//     document store, writing per-collection artifacts plus a manifest.
//   - Restorer:         restores a backup (or a subset of its collections)
//     into a target database with idempotent batched upserts, or verifies
//     its checksum without touching the database.
//   - RetentionManager: purges backups older than the daily retention
//     cutoff, artifacts and catalog entries both.
//   - Scheduler:        three independent fixed-interval loops (full,
//     incremental, retention) with per-kind overlap skipping.
//   - Service:          the facade tying the above together and exposing
//     the public operation surface to the API and the scheduler.
//
// Backup Types:
//
//	Full:        every collection in every visible database
//	Incremental: documents modified since a reference timestamp
//
// Artifact Layout:
//
//	<backupID>                                manifest (JSON)
//	<backupID>/<database>/<collection>        serialized document array
//
// Metadata records the size and SHA-256 checksum of the serialized manifest
// before optional encryption, so validation works by re-reading the manifest
// through the same artifact store and recomputing the digest.
//
// Status Lifecycle:
//
//	in_progress ──▶ completed
//	     │
//	     └────────▶ failed
//
// Terminal records are immutable; a retry is a brand-new run with a new ID.
//
// Usage:
//
//	svc := backup.NewService(store, artifacts, catalogStore, backup.Options{
//	    RestoreBatchSize: 100,
//	    Retention:        backup.RetentionWindows{Daily: 7, Weekly: 4, Monthly: 12},
//	})
//	md, err := svc.PerformFullBackup(ctx, backup.TriggerManual, "")
//
//	result, err := svc.RestoreFromBackup(ctx, backup.RestoreOptions{
//	    BackupID:     md.ID,
//	    ValidateOnly: false,
//	})
package backup
