// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package services

import (
	"context"
	"fmt"
	"time"
)

// AuditCleaner matches the audit logger's retention surface.
//
// Satisfied by *audit.Logger:
//   - Cleanup(ctx context.Context) (int64, error)
type AuditCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// AuditCleanupService runs periodic audit retention sweeps as a
// supervised service, so a panicking store cannot kill cleanup for the
// life of the process.
//
// Example usage:
//
//	svc := services.NewAuditCleanupService(auditLogger, auditLogger.CleanupInterval())
//	tree.AddDataService(svc)
type AuditCleanupService struct {
	cleaner  AuditCleaner
	interval time.Duration
	name     string
}

// NewAuditCleanupService creates a cleanup service sweeping at interval.
// An interval of zero selects daily sweeps.
func NewAuditCleanupService(cleaner AuditCleaner, interval time.Duration) *AuditCleanupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &AuditCleanupService{
		cleaner:  cleaner,
		interval: interval,
		name:     "audit-cleanup",
	}
}

// Serve implements suture.Service.
func (s *AuditCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.cleaner.Cleanup(ctx); err != nil {
				return fmt.Errorf("audit cleanup failed: %w", err)
			}
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *AuditCleanupService) String() string {
	return s.name
}
