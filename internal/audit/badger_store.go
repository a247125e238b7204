// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
badger_store.go - Durable Audit Store

BadgerStore persists audit events in BadgerDB under two key families:

	audit:event:<id>            -> event JSON
	audit:time:<nanos>:<id>     -> <id>

The time index embeds the event timestamp as a zero-padded UnixNano so
lexicographic key order equals chronological order. Queries walk the
index in reverse for newest-first results and prune by the timestamp in
the key before touching the event body; retention deletes walk it
forward and stop at the cutoff.

The store can share a BadgerDB handle with the backup catalog; the key
prefixes keep the two keyspaces apart.
*/

//nolint:staticcheck // File documentation, not package doc
package audit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	auditEventPrefix = "audit:event:"
	auditTimePrefix  = "audit:time:"

	// deleteBatchSize bounds one delete transaction to stay under
	// BadgerDB's transaction size limit.
	deleteBatchSize = 1000
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db      *badger.DB
	ownedDB bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path and returns a
// store backed by it. Close releases the database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for audit: %w", err)
	}
	return &BadgerStore{db: db, ownedDB: true}, nil
}

// NewBadgerStoreFromDB wraps an existing BadgerDB connection. Close
// leaves the connection open for its owner.
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func eventKey(id string) []byte {
	return []byte(auditEventPrefix + id)
}

func timeKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", auditTimePrefix, ts.UnixNano(), id))
}

// splitTimeKey recovers the timestamp and event ID from an index key.
func splitTimeKey(key []byte) (int64, string, error) {
	rest := strings.TrimPrefix(string(key), auditTimePrefix)
	sep := strings.IndexByte(rest, ':')
	if sep < 0 {
		return 0, "", fmt.Errorf("malformed audit index key %q", key)
	}
	nanos, err := strconv.ParseInt(rest[:sep], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed audit index key %q: %w", key, err)
	}
	return nanos, rest[sep+1:], nil
}

// Save persists the event body and its time index entry.
func (s *BadgerStore) Save(_ context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(eventKey(event.ID), data); err != nil {
			return err
		}
		return txn.Set(timeKey(event.Timestamp, event.ID), []byte(event.ID))
	})
}

// Get retrieves an event by ID.
func (s *BadgerStore) Get(_ context.Context, id string) (*Event, error) {
	var event Event

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(eventKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("audit event not found: %s", id)
		}
		if err != nil {
			return fmt.Errorf("get audit event: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Query walks the time index newest first, fetching and matching event
// bodies until the limit fills or the index leaves the requested time
// range.
func (s *BadgerStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	var results []Event

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(auditTimePrefix)
		seek := append(append([]byte{}, prefix...), 0xff)

		skipped := 0
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			nanos, id, err := splitTimeKey(it.Item().Key())
			if err != nil {
				return err
			}

			ts := time.Unix(0, nanos)
			if filter.StartTime != nil && ts.Before(*filter.StartTime) {
				// The walk is newest first, everything further
				// back is older still.
				break
			}
			if filter.EndTime != nil && ts.After(*filter.EndTime) {
				continue
			}

			event, err := s.fetchEvent(txn, id)
			if err != nil {
				return err
			}
			if !filter.matches(event) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			results = append(results, *event)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit index: %w", err)
	}
	return results, nil
}

// Count returns the number of events matching the filter.
func (s *BadgerStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	filter.Limit = 0
	filter.Offset = 0
	events, err := s.Query(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

// Delete removes events older than the cutoff. Keys are collected in a
// snapshot first, then deleted in bounded batches.
func (s *BadgerStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	var doomed [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(auditTimePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			nanos, id, err := splitTimeKey(key)
			if err != nil {
				return err
			}
			if !time.Unix(0, nanos).Before(olderThan) {
				// Forward walk is oldest first, the rest is newer.
				break
			}
			doomed = append(doomed, key, eventKey(id))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan audit index: %w", err)
	}

	for start := 0; start < len(doomed); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(doomed))
		batch := doomed[start:end]
		err := s.db.Update(func(txn *badger.Txn) error {
			for _, key := range batch {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("delete audit events: %w", err)
		}
	}

	// Two keys per event.
	return int64(len(doomed) / 2), nil
}

// GetStats summarizes the stored events with a full scan.
func (s *BadgerStore) GetStats(_ context.Context) (*Stats, error) {
	stats := newStats()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(auditEventPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var event Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("unmarshal audit event: %w", err)
			}
			stats.observe(&event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return stats, nil
}

// Close releases the BadgerDB when this store owns it.
func (s *BadgerStore) Close() error {
	if s.ownedDB {
		return s.db.Close()
	}
	return nil
}

func (s *BadgerStore) fetchEvent(txn *badger.Txn, id string) (*Event, error) {
	item, err := txn.Get(eventKey(id))
	if err != nil {
		return nil, fmt.Errorf("get audit event %s: %w", id, err)
	}
	var event Event
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &event)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit event %s: %w", id, err)
	}
	return &event, nil
}
