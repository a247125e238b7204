// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package backup

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCatalog() *Catalog {
	return NewCatalog(NewMemoryCatalogStore())
}

func testRecord(id string, typ BackupType, status BackupStatus, createdAt time.Time) *Metadata {
	return &Metadata{
		ID:         id,
		Type:       typ,
		Status:     status,
		Trigger:    TriggerManual,
		CreatedAt:  createdAt,
		AppVersion: "test",
	}
}

func TestCatalogAppendAndGet(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	md := testRecord("run-1", TypeFull, StatusInProgress, time.Now())
	if err := catalog.Append(ctx, md); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := catalog.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "run-1" || got.Type != TypeFull || got.Status != StatusInProgress {
		t.Errorf("Get() = %+v, want the appended record", got)
	}
}

func TestCatalogAppendValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		md      *Metadata
		wantErr error
	}{
		{
			name: "missing ID",
			md:   &Metadata{Type: TypeFull, Status: StatusInProgress},
		},
		{
			name:    "completed record rejected",
			md:      testRecord("run-1", TypeFull, StatusCompleted, time.Now()),
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "failed record rejected",
			md:      testRecord("run-1", TypeFull, StatusFailed, time.Now()),
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newTestCatalog()
			err := catalog.Append(ctx, tt.md)
			if err == nil {
				t.Fatal("Append() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Append() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogAppendNormalizesEmptyStatus(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	md := &Metadata{ID: "run-1", Type: TypeFull, CreatedAt: time.Now()}
	if err := catalog.Append(ctx, md); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := catalog.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusInProgress {
		t.Errorf("Status = %s, want %s", got.Status, StatusInProgress)
	}
}

func TestCatalogAppendDuplicate(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	md := testRecord("run-1", TypeFull, StatusInProgress, time.Now())
	if err := catalog.Append(ctx, md); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	err := catalog.Append(ctx, testRecord("run-1", TypeFull, StatusInProgress, time.Now()))
	if !errors.Is(err, ErrBackupExists) {
		t.Errorf("Append() error = %v, want ErrBackupExists", err)
	}
}

func TestCatalogStatusTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		from    BackupStatus
		to      BackupStatus
		wantErr bool
	}{
		{name: "in_progress to completed", from: StatusInProgress, to: StatusCompleted},
		{name: "in_progress to failed", from: StatusInProgress, to: StatusFailed},
		{name: "completed is terminal", from: StatusCompleted, to: StatusFailed, wantErr: true},
		{name: "failed is terminal", from: StatusFailed, to: StatusCompleted, wantErr: true},
		{name: "completed cannot regress", from: StatusCompleted, to: StatusInProgress, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryCatalogStore()
			catalog := NewCatalog(store)

			// Seed through the store directly so terminal initial states
			// are possible.
			seed := testRecord("run-1", TypeFull, tt.from, time.Now())
			if err := store.Append(ctx, seed); err != nil {
				t.Fatalf("seeding record: %v", err)
			}

			update := testRecord("run-1", TypeFull, tt.to, seed.CreatedAt)
			err := catalog.Update(ctx, update)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Update() error = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			got, err := catalog.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Status != tt.to {
				t.Errorf("Status = %s, want %s", got.Status, tt.to)
			}
		})
	}
}

func TestCatalogUpdateMissing(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	err := catalog.Update(ctx, testRecord("no-such-run", TypeFull, StatusCompleted, time.Now()))
	if !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Update() error = %v, want ErrBackupNotFound", err)
	}
}

func TestCatalogRemove(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	if err := catalog.Append(ctx, testRecord("run-1", TypeFull, StatusInProgress, time.Now())); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := catalog.Remove(ctx, "run-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := catalog.Get(ctx, "run-1"); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Get() after remove error = %v, want ErrBackupNotFound", err)
	}
	if err := catalog.Remove(ctx, "run-1"); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Remove() twice error = %v, want ErrBackupNotFound", err)
	}
}

func TestCatalogList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore()
	catalog := NewCatalog(store)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []*Metadata{
		testRecord("run-1", TypeFull, StatusCompleted, base),
		testRecord("run-2", TypeIncremental, StatusCompleted, base.Add(1*time.Hour)),
		testRecord("run-3", TypeIncremental, StatusFailed, base.Add(2*time.Hour)),
		testRecord("run-4", TypeFull, StatusInProgress, base.Add(3*time.Hour)),
	}
	records[2].Trigger = TriggerScheduled
	for _, md := range records {
		if err := store.Append(ctx, md); err != nil {
			t.Fatalf("seeding %s: %v", md.ID, err)
		}
	}

	full := TypeFull
	completed := StatusCompleted
	scheduled := TriggerScheduled
	startDate := base.Add(30 * time.Minute)

	tests := []struct {
		name    string
		opts    ListOptions
		wantIDs []string
	}{
		{
			name:    "no filter sorts oldest first",
			opts:    ListOptions{},
			wantIDs: []string{"run-1", "run-2", "run-3", "run-4"},
		},
		{
			name:    "sort descending",
			opts:    ListOptions{SortDesc: true},
			wantIDs: []string{"run-4", "run-3", "run-2", "run-1"},
		},
		{
			name:    "filter by type",
			opts:    ListOptions{Type: &full},
			wantIDs: []string{"run-1", "run-4"},
		},
		{
			name:    "filter by status",
			opts:    ListOptions{Status: &completed},
			wantIDs: []string{"run-1", "run-2"},
		},
		{
			name:    "filter by trigger",
			opts:    ListOptions{Trigger: &scheduled},
			wantIDs: []string{"run-3"},
		},
		{
			name:    "filter by start date",
			opts:    ListOptions{StartDate: &startDate},
			wantIDs: []string{"run-2", "run-3", "run-4"},
		},
		{
			name:    "limit",
			opts:    ListOptions{Limit: 2},
			wantIDs: []string{"run-1", "run-2"},
		},
		{
			name:    "offset and limit",
			opts:    ListOptions{Offset: 1, Limit: 2},
			wantIDs: []string{"run-2", "run-3"},
		},
		{
			name:    "offset past the end",
			opts:    ListOptions{Offset: 10},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List() returned %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, md := range got {
				if md.ID != tt.wantIDs[i] {
					t.Errorf("List()[%d].ID = %s, want %s", i, md.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestCatalogLatestCompleted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore()
	catalog := NewCatalog(store)

	latest, err := catalog.LatestCompleted(ctx)
	if err != nil {
		t.Fatalf("LatestCompleted() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("LatestCompleted() on empty catalog = %+v, want nil", latest)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seeds := []*Metadata{
		testRecord("run-1", TypeFull, StatusCompleted, base),
		testRecord("run-2", TypeIncremental, StatusCompleted, base.Add(1*time.Hour)),
		testRecord("run-3", TypeFull, StatusFailed, base.Add(2*time.Hour)),
		testRecord("run-4", TypeFull, StatusInProgress, base.Add(3*time.Hour)),
	}
	for _, md := range seeds {
		if err := store.Append(ctx, md); err != nil {
			t.Fatalf("seeding %s: %v", md.ID, err)
		}
	}

	latest, err = catalog.LatestCompleted(ctx)
	if err != nil {
		t.Fatalf("LatestCompleted() error = %v", err)
	}
	if latest == nil || latest.ID != "run-2" {
		t.Errorf("LatestCompleted() = %+v, want run-2 (failed and in_progress ignored)", latest)
	}
}

func TestCatalogStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore()
	catalog := NewCatalog(store)

	empty, err := catalog.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if empty.TotalBackups != 0 || empty.SuccessRate != 0 {
		t.Errorf("Stats() on empty catalog = %+v, want zero totals", empty)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seeds := []*Metadata{
		testRecord("run-1", TypeFull, StatusCompleted, base),
		testRecord("run-2", TypeIncremental, StatusCompleted, base.Add(1*time.Hour)),
		testRecord("run-3", TypeIncremental, StatusCompleted, base.Add(2*time.Hour)),
		testRecord("run-4", TypeFull, StatusFailed, base.Add(3*time.Hour)),
	}
	seeds[0].SizeBytes = 1000
	seeds[1].SizeBytes = 50
	seeds[2].SizeBytes = 70
	seeds[3].SizeBytes = 999 // failed runs never count toward size
	for _, md := range seeds {
		if err := store.Append(ctx, md); err != nil {
			t.Fatalf("seeding %s: %v", md.ID, err)
		}
	}

	stats, err := catalog.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalBackups != 4 {
		t.Errorf("TotalBackups = %d, want 4", stats.TotalBackups)
	}
	if stats.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", stats.SuccessRate)
	}
	if stats.CompletedSizeBytes != 1120 {
		t.Errorf("CompletedSizeBytes = %d, want 1120", stats.CompletedSizeBytes)
	}
	if stats.CountByStatus[StatusCompleted] != 3 || stats.CountByStatus[StatusFailed] != 1 {
		t.Errorf("CountByStatus = %v", stats.CountByStatus)
	}
	if stats.CountByType[TypeFull] != 2 || stats.CountByType[TypeIncremental] != 2 {
		t.Errorf("CountByType = %v", stats.CountByType)
	}
	if stats.LastFullBackup == nil || !stats.LastFullBackup.Equal(base) {
		t.Errorf("LastFullBackup = %v, want %v (failed full ignored)", stats.LastFullBackup, base)
	}
	if stats.LastIncrementalBackup == nil || !stats.LastIncrementalBackup.Equal(base.Add(2*time.Hour)) {
		t.Errorf("LastIncrementalBackup = %v, want %v", stats.LastIncrementalBackup, base.Add(2*time.Hour))
	}
}

func TestCatalogListIsolation(t *testing.T) {
	ctx := context.Background()
	catalog := newTestCatalog()

	md := testRecord("run-1", TypeFull, StatusInProgress, time.Now())
	md.Collections = []string{"users"}
	if err := catalog.Append(ctx, md); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := catalog.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Collections[0] = "mutated"
	got.Status = StatusFailed

	again, err := catalog.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Collections[0] != "users" || again.Status != StatusInProgress {
		t.Error("mutating a returned record leaked into the catalog")
	}
}
