// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
service.go - Backup Service Facade

The Service is the single entry point the API, the scheduler and the
disaster recovery orchestrator call into. It owns the catalog, the engine,
the restorer and the retention manager, and adds two cross-cutting
behaviors on top of them:

Run Guards:
Each operation kind (full, incremental, restore, retention) holds its own
non-blocking mutex. A second invocation while one is executing returns
ErrRunInProgress immediately; different kinds never block each other.

Completion Hooks:
Optional callbacks fire after a backup reaches a terminal status and after
a restore finishes. The process wiring uses them to publish events and
append audit entries without this package depending on either.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// AppVersion is stamped into backup metadata. Set at build time via
// -ldflags.
var AppVersion = "dev"

// Options configures the service facade.
type Options struct {
	// Encrypted marks new backups as written through the encrypting
	// artifact store.
	Encrypted bool

	// EncryptionKeyID is the operator-assigned key label recorded on
	// encrypted backups.
	EncryptionKeyID string

	// RestoreBatchSize caps documents per restore batch. Zero means
	// DefaultRestoreBatchSize.
	RestoreBatchSize int

	// Retention windows. Only the daily window is enforced.
	Retention RetentionWindows
}

// Service is the backup and restore facade.
type Service struct {
	catalog   *Catalog
	engine    *Engine
	restorer  *Restorer
	retention *RetentionManager
	artifacts artifact.Store
	log       zerolog.Logger

	fullMu        sync.Mutex
	incrementalMu sync.Mutex
	restoreMu     sync.Mutex
	retentionMu   sync.Mutex

	onBackupFinished  func(*Metadata)
	onRestoreFinished func(*RestoreResult)
}

// NewService assembles the facade over a document store, an artifact store
// and a catalog store.
func NewService(store docstore.Client, artifacts artifact.Store, catalogStore CatalogStore, opts Options) *Service {
	catalog := NewCatalog(catalogStore)
	return &Service{
		catalog:   catalog,
		engine:    NewEngine(store, artifacts, catalog, opts.Encrypted, opts.EncryptionKeyID),
		restorer:  NewRestorer(store, artifacts, catalog, opts.RestoreBatchSize),
		retention: NewRetentionManager(catalog, artifacts, opts.Retention),
		artifacts: artifacts,
		log:       logging.Component("backup"),
	}
}

// SetOnBackupFinished registers a hook invoked after every backup run that
// reaches a terminal status, completed and failed alike. Must be called
// before the service starts handling requests.
func (s *Service) SetOnBackupFinished(fn func(*Metadata)) {
	s.onBackupFinished = fn
}

// SetOnRestoreFinished registers a hook invoked after every successful
// restore, validate-only runs included. Must be called before the service
// starts handling requests.
func (s *Service) SetOnRestoreFinished(fn func(*RestoreResult)) {
	s.onRestoreFinished = fn
}

// PerformFullBackup runs a full backup. It returns ErrRunInProgress when a
// full run is already executing.
func (s *Service) PerformFullBackup(ctx context.Context, trigger BackupTrigger, notes string) (*Metadata, error) {
	if !s.fullMu.TryLock() {
		return nil, fmt.Errorf("%w: full backup", ErrRunInProgress)
	}
	defer s.fullMu.Unlock()

	md, err := s.engine.PerformFullBackup(ctx, trigger, notes)
	s.notifyBackupFinished(md)
	return md, err
}

// PerformIncrementalBackup runs an incremental backup. A nil since chains
// off the most recent completed backup. It returns ErrRunInProgress when
// an incremental run is already executing.
func (s *Service) PerformIncrementalBackup(ctx context.Context, since *time.Time, trigger BackupTrigger, notes string) (*Metadata, error) {
	if !s.incrementalMu.TryLock() {
		return nil, fmt.Errorf("%w: incremental backup", ErrRunInProgress)
	}
	defer s.incrementalMu.Unlock()

	md, err := s.engine.PerformIncrementalBackup(ctx, since, trigger, notes)
	s.notifyBackupFinished(md)
	return md, err
}

// RestoreFromBackup restores or, with ValidateOnly, verifies a backup. It
// returns ErrRunInProgress when a restore is already executing.
func (s *Service) RestoreFromBackup(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	if !s.restoreMu.TryLock() {
		return nil, fmt.Errorf("%w: restore", ErrRunInProgress)
	}
	defer s.restoreMu.Unlock()

	result, err := s.restorer.RestoreFromBackup(ctx, opts)
	if err == nil && s.onRestoreFinished != nil {
		s.onRestoreFinished(result)
	}
	return result, err
}

// ApplyRetention runs one retention sweep. It returns ErrRunInProgress
// when a sweep is already executing.
func (s *Service) ApplyRetention(ctx context.Context) (*RetentionResult, error) {
	if !s.retentionMu.TryLock() {
		return nil, fmt.Errorf("%w: retention", ErrRunInProgress)
	}
	defer s.retentionMu.Unlock()

	return s.retention.Apply(ctx)
}

// ListBackups returns catalog records matching opts, newest first.
func (s *Service) ListBackups(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	return s.catalog.List(ctx, opts)
}

// GetBackup returns one catalog record by ID.
func (s *Service) GetBackup(ctx context.Context, id string) (*Metadata, error) {
	return s.catalog.Get(ctx, id)
}

// Stats aggregates the catalog into operator-facing statistics.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.catalog.Stats(ctx)
}

// DeleteBackup removes a backup and all its artifacts. Artifacts go first
// so a partial failure leaves a catalog entry that can be retried.
func (s *Service) DeleteBackup(ctx context.Context, id string) error {
	md, err := s.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.artifacts.DeletePrefix(ctx, id); err != nil {
		return fmt.Errorf("deleting artifacts for %s: %w", id, err)
	}
	if err := s.catalog.Remove(ctx, id); err != nil {
		return err
	}
	s.log.Info().
		Str("backup_id", id).
		Str("type", string(md.Type)).
		Msg("Backup deleted")
	return nil
}

// Ping verifies the document store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.engine.store.Ping(ctx)
}

// Close releases the catalog store.
func (s *Service) Close() error {
	return s.catalog.Close()
}

func (s *Service) notifyBackupFinished(md *Metadata) {
	if md == nil || s.onBackupFinished == nil {
		return
	}
	if md.Terminal() {
		s.onBackupFinished(md)
	}
}
