// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// catalogKeyPrefix namespaces catalog records in the BadgerDB keyspace.
const catalogKeyPrefix = "backup:"

// BadgerCatalogStore persists catalog records in BadgerDB so the ledger
// survives restarts. Records are JSON values under backup:<id>.
type BadgerCatalogStore struct {
	db *badger.DB

	// ownedDB marks a connection this store opened and must close. A
	// store wrapping a caller-provided DB leaves closing to the caller.
	ownedDB bool
}

// OpenBadgerCatalogStore opens (or creates) a BadgerDB at path and returns
// a store backed by it.
func OpenBadgerCatalogStore(path string) (*BadgerCatalogStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for catalog: %w", err)
	}
	return &BadgerCatalogStore{db: db, ownedDB: true}, nil
}

// NewBadgerCatalogStoreFromDB wraps an existing BadgerDB connection. The
// caller keeps ownership of the connection and closes it.
func NewBadgerCatalogStoreFromDB(db *badger.DB) *BadgerCatalogStore {
	return &BadgerCatalogStore{db: db}
}

func catalogKey(id string) []byte {
	return []byte(catalogKeyPrefix + id)
}

func (s *BadgerCatalogStore) Append(ctx context.Context, md *Metadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal backup record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := catalogKey(md.ID)
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrBackupExists, md.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check backup record: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerCatalogStore) Update(ctx context.Context, md *Metadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal backup record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := catalogKey(md.ID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrBackupNotFound, md.ID)
			}
			return fmt.Errorf("check backup record: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerCatalogStore) Get(ctx context.Context, id string) (*Metadata, error) {
	var md Metadata

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(catalogKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get backup record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &md)
		})
	})
	if err != nil {
		return nil, err
	}
	return &md, nil
}

func (s *BadgerCatalogStore) List(ctx context.Context) ([]*Metadata, error) {
	var records []*Metadata

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(catalogKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var md Metadata
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &md)
			})
			if err != nil {
				return fmt.Errorf("unmarshal backup record: %w", err)
			}
			records = append(records, &md)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	return records, nil
}

func (s *BadgerCatalogStore) Remove(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := catalogKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
			}
			return fmt.Errorf("check backup record: %w", err)
		}
		return txn.Delete(key)
	})
}

// Close closes the underlying BadgerDB when this store opened it.
func (s *BadgerCatalogStore) Close() error {
	if s.ownedDB {
		return s.db.Close()
	}
	return nil
}
