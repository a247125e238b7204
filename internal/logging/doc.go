// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package logging provides centralized zerolog-based structured logging
// for the VCarpool DR service.
//
// The package exposes a single global logger configured once at startup,
// package-level event starters for each level, and helpers for component
// child loggers and context propagation of run/request identifiers.
//
// # Quick Start
//
//	import "github.com/vedprakash-m/vcarpool-dr/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("backup_id", id).Msg("Backup completed")
//	logging.Error().Err(err).Msg("Restore failed")
//
// # Critical Alerts
//
// Disaster-recovery contact notification and other operator-facing alerts
// use Critical(), which emits at error level with a critical=true field so
// downstream log routing can page on it:
//
//	logging.Critical().Str("plan", plan.Name).Msg("Disaster recovery initiated")
//
// # Component Loggers
//
// Long-lived components hold a child logger with a fixed component field:
//
//	log := logging.Component("scheduler")
//	log.Info().Msg("Scheduler started")
//
// # Context Propagation
//
// Backup runs and HTTP requests carry identifiers through context:
//
//	ctx = logging.ContextWithRunID(ctx, backupID)
//	logging.Ctx(ctx).Info().Msg("Writing artifacts")
//
// # slog Adapter
//
// NewSlogLogger bridges to log/slog for libraries that require it
// (the suture supervisor via sutureslog):
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// All exported functions are safe for concurrent use.
package logging
