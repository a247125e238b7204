// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package docstore

import (
	"context"
	"time"
)

// IDField is the document identity field used for upserts.
const IDField = "_id"

// systemDatabases are never enumerated or touched by backup and restore.
var systemDatabases = map[string]bool{
	"admin":  true,
	"config": true,
	"local":  true,
}

// Document is a single schemaless document. Identity lives in the "_id"
// field when present.
type Document map[string]interface{}

// ID returns the document identity and whether one is set.
func (d Document) ID() (interface{}, bool) {
	id, ok := d[IDField]
	return id, ok
}

// Client is the document store surface the backup and restore engines
// depend on. Implementations must be safe for concurrent use.
type Client interface {
	// ListDatabases returns the application database names in sorted
	// order, excluding system databases.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListCollections returns the collection names of a database in
	// sorted order.
	ListCollections(ctx context.Context, database string) ([]string, error)

	// ReadDocuments returns all documents of a collection. When
	// modifiedAfter is non-nil, only documents whose modified timestamp
	// is strictly after it are returned.
	ReadDocuments(ctx context.Context, database, collection string, modifiedAfter *time.Time) ([]Document, error)

	// UpsertDocument replaces the document with the same identity, or
	// inserts it when absent.
	UpsertDocument(ctx context.Context, database, collection string, doc Document) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}

// filterDatabases drops system databases and, when an allowlist is
// configured, anything outside it.
func filterDatabases(names, allowlist []string) []string {
	allowed := map[string]bool{}
	for _, name := range allowlist {
		allowed[name] = true
	}

	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if systemDatabases[name] {
			continue
		}
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		filtered = append(filtered, name)
	}
	return filtered
}
