// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package authz

import (
	"strings"
	"sync"
	"time"
)

// enforcementCache caches authorization decisions keyed by
// (subject, object, action).
type enforcementCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	allowed   bool
	expiresAt time.Time
}

// newEnforcementCache creates a cache and starts its cleanup goroutine.
// Non-positive TTLs fall back to five minutes.
func newEnforcementCache(ttl time.Duration) *enforcementCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &enforcementCache{
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// key builds the cache key for a decision.
func (c *enforcementCache) key(subject, object, action string) string {
	return subject + ":" + object + ":" + action
}

// get retrieves a cached decision. The second return reports a hit.
func (c *enforcementCache) get(subject, object, action string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[c.key(subject, object, action)]
	if !ok {
		return false, false
	}

	if time.Now().After(entry.expiresAt) {
		return false, false
	}

	return entry.allowed, true
}

// set stores a decision.
func (c *enforcementCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.key(subject, object, action)] = cacheEntry{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// invalidateUser removes all cached decisions for a subject.
func (c *enforcementCache) invalidateUser(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := subject + ":"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// clear removes all cached decisions.
func (c *enforcementCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// cleanup periodically removes expired entries.
func (c *enforcementCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop stops the cleanup goroutine. Safe to call multiple times.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
