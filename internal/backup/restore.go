// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
restore.go - Restore Engine

The restorer replays backup artifacts into the document store.

Restore Flow:
 1. Look up the catalog record (ErrBackupNotFound when absent)
 2. Validate-only requests recompute the manifest checksum and stop; the
    document store is never touched
 3. Load the manifest, select the requested collections (all when the
    option is empty) and upsert each document array in fixed-size batches

Restores are idempotent: documents are upserted by their identifier, so
replaying the same backup twice converges on the same store state.

Failure Semantics:
A document that fails to upsert is logged, counted as skipped and does not
abort the restore. Artifact-level failures (missing or undecodable) abort
immediately.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// DefaultRestoreBatchSize is the number of documents upserted per batch.
const DefaultRestoreBatchSize = 100

// Restorer replays backups into the document store.
type Restorer struct {
	store     docstore.Client
	artifacts artifact.Store
	catalog   *Catalog
	batchSize int
	log       zerolog.Logger
}

// NewRestorer creates a restorer. A non-positive batchSize falls back to
// DefaultRestoreBatchSize.
func NewRestorer(store docstore.Client, artifacts artifact.Store, catalog *Catalog, batchSize int) *Restorer {
	if batchSize <= 0 {
		batchSize = DefaultRestoreBatchSize
	}
	return &Restorer{
		store:     store,
		artifacts: artifacts,
		catalog:   catalog,
		batchSize: batchSize,
		log:       logging.Component("restore"),
	}
}

// RestoreFromBackup restores the backup identified by opts.BackupID, or
// only verifies its integrity when opts.ValidateOnly is set.
func (r *Restorer) RestoreFromBackup(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	md, err := r.catalog.Get(ctx, opts.BackupID)
	if err != nil {
		return nil, err
	}

	if opts.ValidateOnly {
		return r.validateChecksum(ctx, md, start)
	}

	if md.Status != StatusCompleted {
		return nil, fmt.Errorf("backup %s is %s, only completed backups can be restored", md.ID, md.Status)
	}
	if opts.PointInTime != nil {
		r.log.Info().
			Str("backup_id", md.ID).
			Time("point_in_time", *opts.PointInTime).
			Msg("Point-in-time hint recorded; restore replays the full backup")
	}

	manifest, err := r.loadManifest(ctx, md)
	if err != nil {
		metrics.RecordRestoreRun("failed", time.Since(start))
		return nil, err
	}

	result := &RestoreResult{BackupID: md.ID}
	requested := toNameSet(opts.Collections)

	for _, db := range manifest.Databases {
		target := db.Name
		if opts.TargetDatabase != "" {
			target = opts.TargetDatabase
		}
		for _, cm := range db.Collections {
			if len(requested) > 0 && !requested[cm.Name] {
				continue
			}
			restored, skipped, err := r.restoreCollection(ctx, target, cm)
			if err != nil {
				metrics.RecordRestoreRun("failed", time.Since(start))
				return nil, err
			}
			result.CollectionsRestored++
			result.DocumentsRestored += restored
			result.DocumentsSkipped += skipped
		}
	}

	result.Duration = time.Since(start)
	if result.DocumentsSkipped > 0 {
		warning := fmt.Sprintf("%d documents failed to upsert and were skipped", result.DocumentsSkipped)
		result.Warnings = append(result.Warnings, warning)
		r.log.Warn().
			Str("backup_id", md.ID).
			Int64("skipped", result.DocumentsSkipped).
			Msg("Restore completed with skipped documents")
	}
	metrics.RecordRestoreRun("completed", result.Duration)

	r.log.Info().
		Str("backup_id", md.ID).
		Int("collections", result.CollectionsRestored).
		Int64("documents", result.DocumentsRestored).
		Int64("skipped", result.DocumentsSkipped).
		Dur("duration", result.Duration).
		Msg("Restore completed")

	return result, nil
}

// validateChecksum recomputes the manifest digest and compares it against
// the recorded one. The document store is never touched.
func (r *Restorer) validateChecksum(ctx context.Context, md *Metadata, start time.Time) (*RestoreResult, error) {
	result := &RestoreResult{BackupID: md.ID, ValidateOnly: true}

	if md.Status == StatusCompleted && md.Checksum == "" && len(md.Collections) == 0 {
		// A completed-but-empty incremental run has no manifest to verify.
		result.Duration = time.Since(start)
		metrics.RecordRestoreRun("validated", result.Duration)
		return result, nil
	}

	data, err := r.artifacts.Get(ctx, md.ID)
	if err != nil {
		metrics.RecordRestoreRun("failed", time.Since(start))
		return nil, fmt.Errorf("loading manifest for %s: %w", md.ID, err)
	}
	actual := checksumBytes(data)
	if actual != md.Checksum {
		metrics.RecordRestoreRun("failed", time.Since(start))
		return nil, fmt.Errorf("%w: backup %s recorded %s, artifact digests to %s",
			ErrChecksumMismatch, md.ID, md.Checksum, actual)
	}

	result.Duration = time.Since(start)
	metrics.RecordRestoreRun("validated", result.Duration)
	r.log.Info().Str("backup_id", md.ID).Msg("Backup checksum verified")
	return result, nil
}

// loadManifest fetches and decodes the manifest artifact. Empty completed
// runs have no manifest and yield one with no databases.
func (r *Restorer) loadManifest(ctx context.Context, md *Metadata) (*Manifest, error) {
	if md.Checksum == "" && len(md.Collections) == 0 {
		return &Manifest{BackupID: md.ID, Type: md.Type, CreatedAt: md.CreatedAt}, nil
	}
	data, err := r.artifacts.Get(ctx, md.ID)
	if err != nil {
		return nil, fmt.Errorf("loading manifest for %s: %w", md.ID, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest for %s: %w", md.ID, err)
	}
	return &manifest, nil
}

// restoreCollection upserts one collection artifact into targetDB in
// batches. Per-document failures are logged and counted, not fatal.
func (r *Restorer) restoreCollection(ctx context.Context, targetDB string, cm CollectionManifest) (restored, skipped int64, err error) {
	data, err := r.artifacts.Get(ctx, cm.ArtifactKey)
	if err != nil {
		return 0, 0, fmt.Errorf("loading artifact %s: %w", cm.ArtifactKey, err)
	}
	var docs []docstore.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, 0, fmt.Errorf("decoding artifact %s: %w", cm.ArtifactKey, err)
	}

	for batchStart := 0; batchStart < len(docs); batchStart += r.batchSize {
		end := batchStart + r.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		for _, doc := range docs[batchStart:end] {
			if err := r.store.UpsertDocument(ctx, targetDB, cm.Name, doc); err != nil {
				skipped++
				metrics.RestoreDocumentsTotal.WithLabelValues("skipped").Inc()
				id, _ := doc.ID()
				r.log.Warn().
					Err(err).
					Str("database", targetDB).
					Str("collection", cm.Name).
					Interface("document_id", id).
					Msg("Skipping document that failed to upsert")
				continue
			}
			restored++
			metrics.RestoreDocumentsTotal.WithLabelValues("restored").Inc()
		}
		r.log.Debug().
			Str("database", targetDB).
			Str("collection", cm.Name).
			Int("batch_size", end-batchStart).
			Int("processed", end).
			Int("total", len(docs)).
			Msg("Restore batch applied")
	}
	return restored, skipped, nil
}

// toNameSet builds a membership set from a collection name list.
func toNameSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
