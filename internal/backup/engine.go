// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
engine.go - Backup Engine

The engine executes one full or incremental backup run against the document
store.

Run Flow:
 1. Append an in_progress record to the catalog (UUID, type, trigger)
 2. Enumerate databases, then collections, in sorted order
 3. Read each collection (filtered by the reference timestamp when
    incremental) and write its serialized document array as an artifact at
    <backupID>/<database>/<collection>
 4. Write the manifest at <backupID>; record its plaintext size and SHA-256
    digest in the metadata
 5. Mark the record completed

Collections are processed strictly one at a time; there is no intra-run
fan-out.

Failure Semantics:
Any error marks the record failed with the captured message and is returned
to the caller. Artifacts already written stay in place for forensic
inspection; retention removes them when the record ages out.

Empty Incremental Runs:
An incremental run that finds no changed documents in any collection
completes with no artifacts, size 0, an empty checksum and an empty
collection list. This is a normal outcome, not a failure.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// Engine executes backup runs against the document store.
type Engine struct {
	store     docstore.Client
	artifacts artifact.Store
	catalog   *Catalog
	encrypted bool
	keyID     string
	log       zerolog.Logger
}

// NewEngine creates a backup engine. The encrypted flag and key ID are
// recorded on metadata; actual encryption happens inside the artifact
// store wrapper.
func NewEngine(store docstore.Client, artifacts artifact.Store, catalog *Catalog, encrypted bool, keyID string) *Engine {
	return &Engine{
		store:     store,
		artifacts: artifacts,
		catalog:   catalog,
		encrypted: encrypted,
		keyID:     keyID,
		log:       logging.Component("backup"),
	}
}

// PerformFullBackup snapshots every collection in every visible database.
func (e *Engine) PerformFullBackup(ctx context.Context, trigger BackupTrigger, notes string) (*Metadata, error) {
	return e.run(ctx, TypeFull, nil, trigger, notes)
}

// PerformIncrementalBackup snapshots documents modified after since. A nil
// since defaults to the creation time of the most recent completed backup
// of either type, or the Unix epoch when the catalog has none.
func (e *Engine) PerformIncrementalBackup(ctx context.Context, since *time.Time, trigger BackupTrigger, notes string) (*Metadata, error) {
	if since == nil {
		derived, err := e.defaultSince(ctx)
		if err != nil {
			return nil, err
		}
		since = derived
	}
	return e.run(ctx, TypeIncremental, since, trigger, notes)
}

// defaultSince derives the incremental reference timestamp.
func (e *Engine) defaultSince(ctx context.Context) (*time.Time, error) {
	latest, err := e.catalog.LatestCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("deriving incremental reference: %w", err)
	}
	if latest == nil {
		epoch := time.Unix(0, 0).UTC()
		return &epoch, nil
	}
	since := latest.CreatedAt
	return &since, nil
}

// run executes one backup of either type.
func (e *Engine) run(ctx context.Context, typ BackupType, since *time.Time, trigger BackupTrigger, notes string) (*Metadata, error) {
	start := time.Now()
	md := e.initializeRecord(typ, trigger, notes, start, since)

	if err := e.catalog.Append(ctx, md); err != nil {
		return nil, fmt.Errorf("recording backup start: %w", err)
	}
	e.log.Info().
		Str("backup_id", md.ID).
		Str("type", string(typ)).
		Str("trigger", string(trigger)).
		Msg("Backup run started")

	manifest, err := e.captureCollections(ctx, md, since)
	if err != nil {
		return e.fail(ctx, md, start, err)
	}

	if typ == TypeIncremental && len(manifest.Databases) == 0 {
		// Nothing changed anywhere: a completed run with no artifacts.
		md.Collections = []string{}
		return e.complete(ctx, md, start)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return e.fail(ctx, md, start, fmt.Errorf("serializing manifest: %w", err))
	}
	if err := e.artifacts.Put(ctx, md.ID, data); err != nil {
		return e.fail(ctx, md, start, fmt.Errorf("writing manifest: %w", err))
	}

	md.SizeBytes = int64(len(data))
	md.Checksum = checksumBytes(data)
	md.Collections = manifest.CollectionNames()
	md.DocumentCount = manifest.DocumentCount()
	return e.complete(ctx, md, start)
}

// initializeRecord creates the in_progress record for a new run.
func (e *Engine) initializeRecord(typ BackupType, trigger BackupTrigger, notes string, start time.Time, since *time.Time) *Metadata {
	return &Metadata{
		ID:              uuid.New().String(),
		Type:            typ,
		Status:          StatusInProgress,
		Trigger:         trigger,
		CreatedAt:       start,
		Collections:     make([]string, 0),
		Encrypted:       e.encrypted,
		EncryptionKeyID: e.keyID,
		Since:           since,
		Notes:           notes,
		AppVersion:      AppVersion,
	}
}

// captureCollections walks the store and writes one artifact per captured
// collection, returning the manifest describing them.
func (e *Engine) captureCollections(ctx context.Context, md *Metadata, since *time.Time) (*Manifest, error) {
	manifest := &Manifest{
		BackupID:  md.ID,
		Type:      md.Type,
		CreatedAt: md.CreatedAt,
		Since:     since,
	}

	databases, err := e.store.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating databases: %w", err)
	}
	sort.Strings(databases)

	for _, database := range databases {
		collections, err := e.store.ListCollections(ctx, database)
		if err != nil {
			return nil, fmt.Errorf("enumerating collections in %s: %w", database, err)
		}
		sort.Strings(collections)

		dbManifest := DatabaseManifest{Name: database}
		for _, collection := range collections {
			// Strictly sequential: one collection at a time.
			cm, err := e.captureCollection(ctx, md, database, collection, since)
			if err != nil {
				return nil, err
			}
			if cm == nil {
				continue
			}
			dbManifest.Collections = append(dbManifest.Collections, *cm)
		}
		if len(dbManifest.Collections) > 0 {
			manifest.Databases = append(manifest.Databases, dbManifest)
		}
	}
	return manifest, nil
}

// captureCollection reads one collection and writes its artifact. It
// returns nil for an incremental run that found no changed documents, in
// which case the collection is excluded from the manifest.
func (e *Engine) captureCollection(ctx context.Context, md *Metadata, database, collection string, since *time.Time) (*CollectionManifest, error) {
	docs, err := e.store.ReadDocuments(ctx, database, collection, since)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", database, collection, err)
	}
	if md.Type == TypeIncremental && len(docs) == 0 {
		return nil, nil
	}
	if docs == nil {
		docs = []docstore.Document{}
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("serializing %s/%s: %w", database, collection, err)
	}
	key := artifactKey(md.ID, database, collection)
	if err := e.artifacts.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("writing artifact %s: %w", key, err)
	}

	e.log.Debug().
		Str("backup_id", md.ID).
		Str("database", database).
		Str("collection", collection).
		Int("documents", len(docs)).
		Msg("Collection captured")

	return &CollectionManifest{
		Name:          collection,
		ArtifactKey:   key,
		DocumentCount: len(docs),
		SizeBytes:     int64(len(data)),
		Checksum:      checksumBytes(data),
	}, nil
}

// complete applies the terminal completed mutation.
func (e *Engine) complete(ctx context.Context, md *Metadata, start time.Time) (*Metadata, error) {
	md.Status = StatusCompleted
	completedAt := time.Now()
	md.CompletedAt = &completedAt
	md.Duration = time.Since(start)

	if err := e.catalog.Update(ctx, md); err != nil {
		return nil, fmt.Errorf("recording backup completion: %w", err)
	}

	metrics.RecordBackupRun(string(md.Type), string(StatusCompleted), md.Duration, md.SizeBytes)
	metrics.BackupDocumentsTotal.WithLabelValues(string(md.Type)).Add(float64(md.DocumentCount))

	e.log.Info().
		Str("backup_id", md.ID).
		Str("type", string(md.Type)).
		Int("collections", len(md.Collections)).
		Int64("documents", md.DocumentCount).
		Int64("size_bytes", md.SizeBytes).
		Dur("duration", md.Duration).
		Msg("Backup run completed")

	return md, nil
}

// fail applies the terminal failed mutation and returns the run error.
// Artifacts already written are left in place for forensic inspection.
func (e *Engine) fail(ctx context.Context, md *Metadata, start time.Time, runErr error) (*Metadata, error) {
	md.Status = StatusFailed
	md.Error = runErr.Error()
	completedAt := time.Now()
	md.CompletedAt = &completedAt
	md.Duration = time.Since(start)

	if err := e.catalog.Update(ctx, md); err != nil {
		e.log.Error().Err(err).Str("backup_id", md.ID).Msg("Failed to record backup failure")
	}

	metrics.RecordBackupRun(string(md.Type), string(StatusFailed), md.Duration, 0)

	e.log.Error().
		Err(runErr).
		Str("backup_id", md.ID).
		Str("type", string(md.Type)).
		Msg("Backup run failed")

	return md, runErr
}

// artifactKey builds the storage key for one collection artifact.
func artifactKey(backupID, database, collection string) string {
	return fmt.Sprintf("%s/%s/%s", backupID, database, collection)
}

// checksumBytes returns the SHA-256 hex digest of data.
func checksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
