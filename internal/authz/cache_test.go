// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package authz

import (
	"testing"
	"time"
)

func TestNewEnforcementCache(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	if cache == nil {
		t.Fatal("newEnforcementCache() returned nil")
	}
	defer cache.stop()

	if cache.ttl != 5*time.Minute {
		t.Errorf("cache.ttl = %v, want 5m", cache.ttl)
	}
}

func TestNewEnforcementCache_NonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		cache := newEnforcementCache(ttl)
		if cache.ttl != 5*time.Minute {
			t.Errorf("newEnforcementCache(%v).ttl = %v, want 5m default", ttl, cache.ttl)
		}
		cache.stop()
	}
}

func TestEnforcementCache_Key(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	key := cache.key("operator", "/api/v1/backups", "write")
	expected := "operator:/api/v1/backups:write"

	if key != expected {
		t.Errorf("key() = %q, want %q", key, expected)
	}
}

func TestEnforcementCache_SetAndGet(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("operator", "/api/v1/backups", "write", true)

	allowed, found := cache.get("operator", "/api/v1/backups", "write")
	if !found {
		t.Error("Expected to find cached value")
	}
	if !allowed {
		t.Error("Expected allowed to be true")
	}

	// Denials cache too
	cache.set("viewer", "/api/v1/backups/bkp-1", "delete", false)

	allowed, found = cache.get("viewer", "/api/v1/backups/bkp-1", "delete")
	if !found {
		t.Error("Expected to find cached value")
	}
	if allowed {
		t.Error("Expected allowed to be false")
	}
}

func TestEnforcementCache_Get_NotFound(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	allowed, found := cache.get("nobody", "/api/v1/backups", "read")
	if found {
		t.Error("Expected not to find non-existent key")
	}
	if allowed {
		t.Error("Expected allowed to be false for not found")
	}
}

func TestEnforcementCache_Get_Expired(t *testing.T) {
	cache := newEnforcementCache(1 * time.Millisecond)
	defer cache.stop()

	cache.set("operator", "/api/v1/backups", "write", true)

	time.Sleep(10 * time.Millisecond)

	_, found := cache.get("operator", "/api/v1/backups", "write")
	if found {
		t.Error("Expected expired entry to not be found")
	}
}

func TestEnforcementCache_InvalidateUser(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("asha", "/api/v1/backups", "read", true)
	cache.set("asha", "/api/v1/dr/plan", "read", true)
	cache.set("birk", "/api/v1/backups", "read", true)

	cache.invalidateUser("asha")

	if _, found := cache.get("asha", "/api/v1/backups", "read"); found {
		t.Error("asha's entry should be invalidated")
	}
	if _, found := cache.get("asha", "/api/v1/dr/plan", "read"); found {
		t.Error("asha's other entry should be invalidated")
	}
	if _, found := cache.get("birk", "/api/v1/backups", "read"); !found {
		t.Error("birk's entry should not be affected")
	}
}

func TestEnforcementCache_Clear(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("asha", "/api/v1/backups", "read", true)
	cache.set("birk", "/api/v1/dr/plan", "read", true)

	cache.clear()

	_, found1 := cache.get("asha", "/api/v1/backups", "read")
	_, found2 := cache.get("birk", "/api/v1/dr/plan", "read")

	if found1 || found2 {
		t.Error("All entries should be cleared")
	}
}

func TestEnforcementCache_StopIdempotent(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)

	// Concurrent stops must not panic
	done := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		go func() {
			cache.stop()
			done <- true
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	cache.stop()
}

func TestEnforcementCache_ConcurrentAccess(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	done := make(chan bool, 3)

	go func() {
		for i := 0; i < 100; i++ {
			cache.set("asha", "/api/v1/backups", "read", true)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			cache.set("birk", "/api/v1/backups", "write", false)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			cache.get("asha", "/api/v1/backups", "read")
			cache.get("birk", "/api/v1/backups", "write")
		}
		done <- true
	}()

	for i := 0; i < 3; i++ {
		<-done
	}
}

func TestEnforcementCache_InvalidateUserEdgeCases(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	// Unknown and empty subjects must not panic
	cache.invalidateUser("nonexistent")
	cache.invalidateUser("")

	cache.set("", "/api/v1/backups", "read", true)
	if _, found := cache.get("", "/api/v1/backups", "read"); !found {
		t.Error("Should find entry with empty subject")
	}

	cache.invalidateUser("")
	if _, found := cache.get("", "/api/v1/backups", "read"); found {
		t.Error("Entry with empty subject should be invalidated")
	}
}

func BenchmarkCache_Set(b *testing.B) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.set("operator", "/api/v1/backups", "write", true)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("operator", "/api/v1/backups", "write", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.get("operator", "/api/v1/backups", "write")
	}
}
