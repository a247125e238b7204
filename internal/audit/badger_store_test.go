// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 3))

	got, err := store.Get(ctx, "e2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != EventTypeBackupCompleted || got.Outcome != OutcomeFailure {
		t.Errorf("event = %+v", got)
	}
	if !got.Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("timestamp = %v", got.Timestamp)
	}

	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Error("Get() should fail for an unknown ID")
	}
}

func TestBadgerStoreQueryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 5))

	events, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []string{"e5", "e4", "e3", "e2", "e1"}
	if got := eventIDs(events); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	page, err := store.Query(ctx, QueryFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query(paged) error = %v", err)
	}
	if got := eventIDs(page); fmt.Sprint(got) != fmt.Sprint([]string{"e4", "e3"}) {
		t.Errorf("page = %v, want [e4 e3]", got)
	}
}

func TestBadgerStoreTimeRange(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 5))

	start := base.Add(1 * time.Minute)
	end := base.Add(3 * time.Minute)
	events, err := store.Query(ctx, QueryFilter{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []string{"e4", "e3", "e2"}
	if got := eventIDs(events); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("range = %v, want %v", got, want)
	}
}

func TestBadgerStoreCountByFilter(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 6))

	count, err := store.Count(ctx, QueryFilter{Outcomes: []Outcome{OutcomeFailure}})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// Limit on the caller's filter must not cap the count.
	count, err = store.Count(ctx, QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 6 {
		t.Errorf("Count() = %d, want 6", count)
	}
}

func TestBadgerStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 5))

	deleted, err := store.Delete(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	events, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []string{"e5", "e4", "e3"}
	if got := eventIDs(events); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
	if _, err := store.Get(ctx, "e1"); err == nil {
		t.Error("e1 body should be gone with its index entry")
	}
}

func TestBadgerStoreStats(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 4))

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d", stats.TotalEvents)
	}
	if stats.EventsBySeverity[string(SeverityError)] != 2 {
		t.Errorf("EventsBySeverity = %v", stats.EventsBySeverity)
	}
	if stats.OldestEvent == nil || !stats.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v", stats.OldestEvent)
	}
}

func TestSplitTimeKey(t *testing.T) {
	ts := time.Date(2026, 4, 1, 9, 0, 0, 123456789, time.UTC)
	key := timeKey(ts, "abc-123")

	nanos, id, err := splitTimeKey(key)
	if err != nil {
		t.Fatalf("splitTimeKey() error = %v", err)
	}
	if nanos != ts.UnixNano() {
		t.Errorf("nanos = %d, want %d", nanos, ts.UnixNano())
	}
	if id != "abc-123" {
		t.Errorf("id = %q", id)
	}

	if _, _, err := splitTimeKey([]byte("audit:time:garbage")); err == nil {
		t.Error("splitTimeKey() should reject keys without a separator")
	}
}

func TestBadgerStoreKeyOrderingAcrossMagnitudes(t *testing.T) {
	// Zero padding must hold ordering across second and nanosecond
	// boundaries.
	ctx := context.Background()
	store := newBadgerStore(t)

	times := []time.Time{
		time.Date(2026, 4, 1, 9, 0, 5, 0, time.UTC),
		time.Date(2026, 4, 1, 9, 0, 5, 500, time.UTC),
		time.Date(2026, 4, 1, 9, 0, 5, 50000000, time.UTC),
		time.Date(2026, 4, 1, 9, 0, 6, 0, time.UTC),
	}
	for i, ts := range times {
		err := store.Save(ctx, &Event{
			ID:        fmt.Sprintf("k%d", i+1),
			Timestamp: ts,
			Type:      EventTypeAdminAction,
			Severity:  SeverityInfo,
			Outcome:   OutcomeSuccess,
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	events, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []string{"k4", "k3", "k2", "k1"}
	if got := eventIDs(events); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
