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

// seedEvents returns n events one minute apart starting at base, IDs
// e1..en, alternating outcomes.
func seedEvents(base time.Time, n int) []*Event {
	events := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		outcome := OutcomeSuccess
		severity := SeverityInfo
		if i%2 == 1 {
			outcome = OutcomeFailure
			severity = SeverityError
		}
		events = append(events, &Event{
			ID:        fmt.Sprintf("e%d", i+1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Type:      EventTypeBackupCompleted,
			Severity:  severity,
			Outcome:   outcome,
			Actor:     Actor{ID: "ops", Type: "user"},
			Target:    &Target{ID: fmt.Sprintf("backup-%d", i+1), Type: "backup"},
			Action:    "backup",
		})
	}
	return events
}

func saveAll(t *testing.T, store Store, events []*Event) {
	t.Helper()
	for _, e := range events {
		if err := store.Save(context.Background(), e); err != nil {
			t.Fatalf("Save(%s) error = %v", e.ID, err)
		}
	}
}

func eventIDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 5))

	got, err := store.Get(ctx, "e3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Target == nil || got.Target.ID != "backup-3" {
		t.Errorf("target = %+v", got.Target)
	}

	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Error("Get() should fail for an unknown ID")
	}
}

func TestMemoryStoreQueryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
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

func TestMemoryStoreFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 6))

	// Events restore-run shaped, to exercise type and text filters.
	saveAll(t, store, []*Event{{
		ID:          "r1",
		Timestamp:   base.Add(time.Hour),
		Type:        EventTypeRestoreCompleted,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       Actor{ID: "asha", Type: "user"},
		Target:      &Target{ID: "backup-2", Type: "backup"},
		Action:      "restore",
		Description: "Backup backup-2 restored",
		RequestID:   "req-777",
	}})

	start := base.Add(2 * time.Minute)
	end := base.Add(4 * time.Minute)

	tests := []struct {
		name   string
		filter QueryFilter
		want   int64
	}{
		{"all", QueryFilter{}, 7},
		{"by type", QueryFilter{Types: []EventType{EventTypeRestoreCompleted}}, 1},
		{"by outcome", QueryFilter{Outcomes: []Outcome{OutcomeFailure}}, 3},
		{"by severity", QueryFilter{Severities: []Severity{SeverityError}}, 3},
		{"by actor", QueryFilter{ActorID: "asha"}, 1},
		{"by target", QueryFilter{TargetID: "backup-2"}, 2},
		{"by time range", QueryFilter{StartTime: &start, EndTime: &end}, 3},
		{"by request id", QueryFilter{RequestID: "req-777"}, 1},
		{"by search text", QueryFilter{SearchText: "RESTORED"}, 1},
		{"no match", QueryFilter{ActorID: "nobody"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 5))

	deleted, err := store.Delete(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
	if _, err := store.Get(ctx, "e1"); err == nil {
		t.Error("e1 should be gone")
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	store := NewMemoryStore(10)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 10))

	saveAll(t, store, []*Event{{
		ID:        "overflow",
		Timestamp: base.Add(time.Hour),
		Type:      EventTypeAdminAction,
		Severity:  SeverityInfo,
		Outcome:   OutcomeSuccess,
	}})

	if store.Len() != 10 {
		t.Errorf("Len() = %d, want 10 after eviction", store.Len())
	}
	if _, err := store.Get(context.Background(), "e1"); err == nil {
		t.Error("oldest event should be evicted")
	}
	if _, err := store.Get(context.Background(), "overflow"); err != nil {
		t.Errorf("newest event missing: %v", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveAll(t, store, seedEvents(base, 4))

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d", stats.TotalEvents)
	}
	if stats.EventsByType[string(EventTypeBackupCompleted)] != 4 {
		t.Errorf("EventsByType = %v", stats.EventsByType)
	}
	if stats.EventsByOutcome[string(OutcomeFailure)] != 2 {
		t.Errorf("EventsByOutcome = %v", stats.EventsByOutcome)
	}
	if stats.OldestEvent == nil || !stats.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v, want %v", stats.OldestEvent, base)
	}
	if stats.NewestEvent == nil || !stats.NewestEvent.Equal(base.Add(3*time.Minute)) {
		t.Errorf("NewestEvent = %v", stats.NewestEvent)
	}
}
