// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
retention.go - Retention Manager

One retention sweep computes three cutoffs (daily, weekly*7 days,
monthly*30 days) but enforces only the daily one: every backup created
strictly before the daily cutoff is deleted, artifacts first, catalog
entry second. The weekly and monthly cutoffs are computed and reported
for operator visibility until tiered retention lands.

A backup that fails to delete is logged and skipped; the sweep moves on
to the next candidate and still reports the deletions that succeeded.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// RetentionWindows configures how long backups are kept.
type RetentionWindows struct {
	// Daily is the enforced window in days.
	Daily int
	// Weekly is the advisory window in weeks.
	Weekly int
	// Monthly is the advisory window in months (30-day months).
	Monthly int
}

// RetentionManager deletes backups that have aged out of the daily window.
type RetentionManager struct {
	catalog   *Catalog
	artifacts artifact.Store
	windows   RetentionWindows
	log       zerolog.Logger
}

// NewRetentionManager creates a retention manager over the catalog and
// artifact store.
func NewRetentionManager(catalog *Catalog, artifacts artifact.Store, windows RetentionWindows) *RetentionManager {
	return &RetentionManager{
		catalog:   catalog,
		artifacts: artifacts,
		windows:   windows,
		log:       logging.Component("retention"),
	}
}

// Apply runs one retention sweep and reports what it removed.
func (m *RetentionManager) Apply(ctx context.Context) (*RetentionResult, error) {
	now := time.Now()
	result := &RetentionResult{
		EvaluatedAt:   now,
		DailyCutoff:   now.AddDate(0, 0, -m.windows.Daily),
		WeeklyCutoff:  now.AddDate(0, 0, -m.windows.Weekly*7),
		MonthlyCutoff: now.AddDate(0, 0, -m.windows.Monthly*30),
	}
	m.log.Debug().
		Time("daily_cutoff", result.DailyCutoff).
		Time("weekly_cutoff", result.WeeklyCutoff).
		Time("monthly_cutoff", result.MonthlyCutoff).
		Msg("Retention cutoffs computed")

	records, err := m.catalog.List(ctx, ListOptions{})
	if err != nil {
		metrics.RecordRetentionRun("failed", 0)
		return nil, fmt.Errorf("listing catalog for retention: %w", err)
	}

	for _, md := range records {
		if !md.CreatedAt.Before(result.DailyCutoff) {
			continue
		}
		removed, err := m.deleteBackup(ctx, md)
		if err != nil {
			m.log.Warn().Err(err).Str("backup_id", md.ID).Msg("Failed to delete expired backup")
			continue
		}
		result.Deleted++
		result.DeletedIDs = append(result.DeletedIDs, md.ID)
		result.DeletedSizeBytes += md.SizeBytes
		result.ArtifactsRemoved += removed
	}

	if result.Deleted > 0 {
		m.log.Info().
			Int("deleted", result.Deleted).
			Int("artifacts_removed", result.ArtifactsRemoved).
			Int64("size_bytes", result.DeletedSizeBytes).
			Time("daily_cutoff", result.DailyCutoff).
			Msg("Retention sweep removed expired backups")
	}
	metrics.RecordRetentionRun("ok", result.Deleted)
	return result, nil
}

// deleteBackup removes one backup, artifacts first: a partial failure
// leaves a catalog entry the next sweep retries, never orphaned artifacts.
func (m *RetentionManager) deleteBackup(ctx context.Context, md *Metadata) (int, error) {
	removed, err := m.artifacts.DeletePrefix(ctx, md.ID)
	if err != nil {
		return removed, fmt.Errorf("deleting artifacts: %w", err)
	}
	if err := m.catalog.Remove(ctx, md.ID); err != nil {
		return removed, fmt.Errorf("removing catalog entry: %w", err)
	}
	return removed, nil
}
