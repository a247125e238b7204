// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
catalog.go - Backup Catalog

The catalog is the ordered ledger of backup metadata records. It owns the
status-transition invariant: records enter as in_progress, move exactly once
to completed or failed, and are removed only by retention or an explicit
delete.

Storage is pluggable through CatalogStore. The memory backend serves tests
and standalone mode; the BadgerDB backend (catalog_badger.go) persists
records across restarts.

Thread Safety:
Catalog serializes the read-check-write of status updates with a mutex, so
concurrent callers (scheduler ticks, API requests) cannot race a terminal
record back to life. Stores only need to be individually safe.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// CatalogStore is the persistence contract for metadata records.
// Implementations store and return independent copies.
type CatalogStore interface {
	// Append stores a new record; ErrBackupExists when the ID is taken.
	Append(ctx context.Context, md *Metadata) error

	// Update replaces an existing record; ErrBackupNotFound when missing.
	Update(ctx context.Context, md *Metadata) error

	// Get returns the record by ID; ErrBackupNotFound when missing.
	Get(ctx context.Context, id string) (*Metadata, error)

	// List returns every record in unspecified order.
	List(ctx context.Context) ([]*Metadata, error)

	// Remove deletes the record by ID; ErrBackupNotFound when missing.
	Remove(ctx context.Context, id string) error

	// Close releases the underlying storage.
	Close() error
}

// Catalog wraps a CatalogStore with lifecycle enforcement, filtered
// listing and the metrics summary.
type Catalog struct {
	store CatalogStore
	mu    sync.Mutex
}

// NewCatalog wraps store.
func NewCatalog(store CatalogStore) *Catalog {
	return &Catalog{store: store}
}

// Append records the start of a run. New records must be in_progress; an
// empty status is normalized.
func (c *Catalog) Append(ctx context.Context, md *Metadata) error {
	if md.ID == "" {
		return fmt.Errorf("backup record has no ID")
	}
	if md.Status == "" {
		md.Status = StatusInProgress
	}
	if md.Status != StatusInProgress {
		return fmt.Errorf("%w: new records start in_progress, got %s", ErrInvalidTransition, md.Status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Append(ctx, md); err != nil {
		return err
	}
	c.refreshGaugesLocked(ctx)
	return nil
}

// Update applies the terminal mutation of a run. The stored record must
// still be in_progress.
func (c *Catalog) Update(ctx context.Context, md *Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.store.Get(ctx, md.ID)
	if err != nil {
		return err
	}
	if err := validTransition(existing.Status, md.Status); err != nil {
		return err
	}
	if err := c.store.Update(ctx, md); err != nil {
		return err
	}
	c.refreshGaugesLocked(ctx)
	return nil
}

// Get returns the record by ID.
func (c *Catalog) Get(ctx context.Context, id string) (*Metadata, error) {
	return c.store.Get(ctx, id)
}

// Remove deletes the record by ID.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Remove(ctx, id); err != nil {
		return err
	}
	c.refreshGaugesLocked(ctx)
	return nil
}

// List returns records matching opts, sorted by creation time.
func (c *Catalog) List(ctx context.Context, opts ListOptions) ([]*Metadata, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*Metadata, 0, len(records))
	for _, md := range records {
		if matchesListFilter(md, opts) {
			filtered = append(filtered, md)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if opts.SortDesc {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return applyPagination(filtered, opts), nil
}

// matchesListFilter checks a record against the filter options.
func matchesListFilter(md *Metadata, opts ListOptions) bool {
	if opts.Type != nil && md.Type != *opts.Type {
		return false
	}
	if opts.Status != nil && md.Status != *opts.Status {
		return false
	}
	if opts.Trigger != nil && md.Trigger != *opts.Trigger {
		return false
	}
	if opts.StartDate != nil && md.CreatedAt.Before(*opts.StartDate) {
		return false
	}
	if opts.EndDate != nil && md.CreatedAt.After(*opts.EndDate) {
		return false
	}
	return true
}

// applyPagination applies offset and limit to the filtered records.
func applyPagination(records []*Metadata, opts ListOptions) []*Metadata {
	if opts.Offset > 0 && opts.Offset < len(records) {
		records = records[opts.Offset:]
	} else if opts.Offset >= len(records) && opts.Offset > 0 {
		return []*Metadata{}
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records
}

// LatestCompleted returns the most recent completed backup of either type,
// or nil when none exists. Incremental runs use it to derive their
// reference timestamp.
func (c *Catalog) LatestCompleted(ctx context.Context) (*Metadata, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var latest *Metadata
	for _, md := range records {
		if md.Status != StatusCompleted {
			continue
		}
		if latest == nil || md.CreatedAt.After(latest.CreatedAt) {
			latest = md
		}
	}
	return latest, nil
}

// Stats computes the catalog metrics summary.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalBackups:  len(records),
		CountByStatus: make(map[BackupStatus]int),
		CountByType:   make(map[BackupType]int),
	}

	completed := 0
	for _, md := range records {
		stats.CountByStatus[md.Status]++
		stats.CountByType[md.Type]++

		if md.Status != StatusCompleted {
			continue
		}
		completed++
		stats.CompletedSizeBytes += md.SizeBytes

		created := md.CreatedAt
		switch md.Type {
		case TypeFull:
			if stats.LastFullBackup == nil || created.After(*stats.LastFullBackup) {
				stats.LastFullBackup = &created
			}
		case TypeIncremental:
			if stats.LastIncrementalBackup == nil || created.After(*stats.LastIncrementalBackup) {
				stats.LastIncrementalBackup = &created
			}
		}
	}

	if stats.TotalBackups > 0 {
		stats.SuccessRate = float64(completed) / float64(stats.TotalBackups)
	}
	return stats, nil
}

// refreshGaugesLocked pushes catalog composition to the metrics gauges
// after a mutation. Must be called with the catalog mutex held.
func (c *Catalog) refreshGaugesLocked(ctx context.Context) {
	records, err := c.store.List(ctx)
	if err != nil {
		return
	}
	var completed, failed, inProgress int
	for _, md := range records {
		switch md.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		case StatusInProgress:
			inProgress++
		}
	}
	rate := 0.0
	if len(records) > 0 {
		rate = float64(completed) / float64(len(records))
	}
	metrics.UpdateCatalogGauges(completed, failed, inProgress, rate)
}

// Close releases the underlying store.
func (c *Catalog) Close() error {
	return c.store.Close()
}

// MemoryCatalogStore is a mutex-guarded in-memory CatalogStore for tests
// and standalone mode.
type MemoryCatalogStore struct {
	mu      sync.RWMutex
	records map[string]*Metadata
}

// NewMemoryCatalogStore returns an empty in-memory store.
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{records: make(map[string]*Metadata)}
}

func (s *MemoryCatalogStore) Append(ctx context.Context, md *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[md.ID]; ok {
		return fmt.Errorf("%w: %s", ErrBackupExists, md.ID)
	}
	s.records[md.ID] = md.Clone()
	return nil
}

func (s *MemoryCatalogStore) Update(ctx context.Context, md *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[md.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, md.ID)
	}
	s.records[md.ID] = md.Clone()
	return nil
}

func (s *MemoryCatalogStore) Get(ctx context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	return md.Clone(), nil
}

func (s *MemoryCatalogStore) List(ctx context.Context) ([]*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*Metadata, 0, len(s.records))
	for _, md := range s.records {
		records = append(records, md.Clone())
	}
	return records, nil
}

func (s *MemoryCatalogStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryCatalogStore) Close() error {
	return nil
}
