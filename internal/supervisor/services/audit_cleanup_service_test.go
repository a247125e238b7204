// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockAuditCleaner is a test double for the AuditCleaner interface.
type mockAuditCleaner struct {
	count      int64
	cleanupErr error
	calls      atomic.Int32
}

func (m *mockAuditCleaner) Cleanup(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.count, m.cleanupErr
}

func TestAuditCleanupService_Interface(t *testing.T) {
	var _ suture.Service = (*AuditCleanupService)(nil)
}

func TestNewAuditCleanupService(t *testing.T) {
	svc := NewAuditCleanupService(&mockAuditCleaner{}, 0)
	if svc == nil {
		t.Fatal("NewAuditCleanupService returned nil")
	}
	if svc.interval != 24*time.Hour {
		t.Errorf("expected default interval 24h, got %v", svc.interval)
	}
	if svc.String() != "audit-cleanup" {
		t.Errorf("expected name 'audit-cleanup', got %q", svc.String())
	}

	svc = NewAuditCleanupService(&mockAuditCleaner{}, time.Hour)
	if svc.interval != time.Hour {
		t.Errorf("expected interval 1h, got %v", svc.interval)
	}
}

func TestAuditCleanupService_Serve(t *testing.T) {
	t.Run("sweeps on each tick", func(t *testing.T) {
		cleaner := &mockAuditCleaner{count: 42}
		svc := NewAuditCleanupService(cleaner, 10*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for cleaner.calls.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after context cancellation")
		}

		if got := cleaner.calls.Load(); got < 2 {
			t.Errorf("expected at least 2 cleanup sweeps, got %d", got)
		}
	})

	t.Run("surfaces cleanup failure", func(t *testing.T) {
		cleanupErr := errors.New("store unavailable")
		cleaner := &mockAuditCleaner{cleanupErr: cleanupErr}
		svc := NewAuditCleanupService(cleaner, 10*time.Millisecond)

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(context.Background())
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, cleanupErr) {
				t.Errorf("expected error wrapping %v, got %v", cleanupErr, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not surface cleanup failure")
		}
	})
}
