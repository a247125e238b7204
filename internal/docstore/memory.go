// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Client used in standalone mode and by
// tests. Ordering is deterministic: databases and collections enumerate
// sorted, documents keep insertion order.
type MemoryStore struct {
	mu            sync.RWMutex
	modifiedField string
	data          map[string]map[string][]Document
	upserts       int
}

// NewMemoryStore returns an empty store filtering incremental reads on
// the given modified field. An empty field defaults to "updatedAt".
func NewMemoryStore(modifiedField string) *MemoryStore {
	if modifiedField == "" {
		modifiedField = "updatedAt"
	}
	return &MemoryStore{
		modifiedField: modifiedField,
		data:          make(map[string]map[string][]Document),
	}
}

// Seed inserts documents without counting them as upserts. Intended for
// test fixtures and standalone-mode bootstrap data.
func (s *MemoryStore) Seed(database, collection string, docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureCollection(database, collection)
	s.data[database][collection] = append(s.data[database][collection], docs...)
}

// EnsureCollection registers an empty collection so it shows up in
// enumeration even with no documents.
func (s *MemoryStore) EnsureCollection(database, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCollection(database, collection)
}

func (s *MemoryStore) ensureCollection(database, collection string) {
	if s.data[database] == nil {
		s.data[database] = make(map[string][]Document)
	}
	if s.data[database][collection] == nil {
		s.data[database][collection] = []Document{}
	}
}

// UpsertCount reports how many upserts have been applied. Used by restore
// tests to verify write behavior.
func (s *MemoryStore) UpsertCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}

// ListDatabases returns all seeded database names in sorted order,
// excluding system databases.
func (s *MemoryStore) ListDatabases(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	filtered := filterDatabases(names, nil)
	sort.Strings(filtered)
	return filtered, nil
}

// ListCollections returns the collection names of a database in sorted order.
func (s *MemoryStore) ListCollections(ctx context.Context, database string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	colls, ok := s.data[database]
	if !ok {
		return nil, fmt.Errorf("database %s not found", database)
	}

	names := make([]string, 0, len(colls))
	for name := range colls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadDocuments returns copies of the stored documents, filtered to those
// modified strictly after modifiedAfter when it is non-nil.
func (s *MemoryStore) ReadDocuments(ctx context.Context, database, collection string, modifiedAfter *time.Time) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	colls, ok := s.data[database]
	if !ok {
		return nil, fmt.Errorf("database %s not found", database)
	}
	docs, ok := colls[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s.%s not found", database, collection)
	}

	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if modifiedAfter != nil {
			ts, ok := s.modifiedTime(doc)
			if !ok || !ts.After(*modifiedAfter) {
				continue
			}
		}
		out = append(out, copyDocument(doc))
	}
	return out, nil
}

// UpsertDocument replaces the document with the same identity or appends
// it when absent.
func (s *MemoryStore) UpsertDocument(ctx context.Context, database, collection string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureCollection(database, collection)
	s.upserts++

	stored := copyDocument(doc)
	id, ok := doc.ID()
	if !ok {
		s.data[database][collection] = append(s.data[database][collection], stored)
		return nil
	}

	docs := s.data[database][collection]
	for i, existing := range docs {
		if existingID, ok := existing.ID(); ok && existingID == id {
			docs[i] = stored
			return nil
		}
	}
	s.data[database][collection] = append(docs, stored)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// modifiedTime extracts the modified timestamp from a document. Values
// may be time.Time (driver decoding) or RFC 3339 strings (JSON fixtures).
func (s *MemoryStore) modifiedTime(doc Document) (time.Time, bool) {
	raw, ok := doc[s.modifiedField]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	default:
		return time.Time{}, false
	}
}

// copyDocument makes a shallow copy so callers cannot mutate stored state.
func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
