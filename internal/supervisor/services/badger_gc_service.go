// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// defaultGCInterval is how often the value log GC runs when the caller
// does not override it. BadgerDB recommends periodic GC during normal
// operation; the catalog and audit keyspaces see low write volume, so a
// relaxed cadence suffices.
const defaultGCInterval = 10 * time.Minute

// defaultDiscardRatio reclaims a value log file once half its entries
// are stale, matching badger's own recommendation.
const defaultDiscardRatio = 0.5

// ValueLogGC matches *badger.DB's garbage collection surface.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// BadgerGCService runs periodic value log garbage collection for one
// BadgerDB. The catalog and the audit trail each run their own database,
// so the default deployment registers one instance per handle.
//
// Example usage:
//
//	tree.AddDataService(services.NewBadgerGCService("catalog", catalogDB, 0))
//	tree.AddDataService(services.NewBadgerGCService("audit", auditDB, 0))
type BadgerGCService struct {
	db           ValueLogGC
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewBadgerGCService creates a GC service for the named database.
// An interval of zero selects the default cadence.
func NewBadgerGCService(name string, db ValueLogGC, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = defaultGCInterval
	}
	return &BadgerGCService{
		db:           db,
		interval:     interval,
		discardRatio: defaultDiscardRatio,
		name:         "badger-gc-" + name,
	}
}

// Serve implements suture.Service. Each tick compacts the value log
// until badger reports nothing left to rewrite.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.runGC(); err != nil {
				return fmt.Errorf("badger value log gc failed: %w", err)
			}
		}
	}
}

// runGC loops the collector because each successful call rewrites at
// most one value log file.
func (s *BadgerGCService) runGC() error {
	for {
		err := s.db.RunValueLogGC(s.discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *BadgerGCService) String() string {
	return s.name
}
