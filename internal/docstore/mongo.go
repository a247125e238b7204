// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package docstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/time/rate"

	"github.com/vedprakash-m/vcarpool-dr/internal/config"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// Mongo is the production Client backed by the official MongoDB driver.
type Mongo struct {
	client        *mongo.Client
	modifiedField string
	databases     []string
	limiter       *rate.Limiter
}

// NewMongo connects to the configured document store. The connect timeout
// bounds the initial dial and ping; all later calls take their deadline
// from the caller's context.
func NewMongo(ctx context.Context, cfg config.DocstoreConfig) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	m := &Mongo{
		client:        client,
		modifiedField: cfg.ModifiedField,
		databases:     cfg.Databases,
	}
	if cfg.OpsPerSecond > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.OpsPerSecond), cfg.OpsPerSecond)
	}

	log := logging.Component("docstore")
	log.Info().
		Int("ops_per_second", cfg.OpsPerSecond).
		Str("modified_field", cfg.ModifiedField).
		Msg("Connected to document store")

	return m, nil
}

// wait blocks until the rate limiter admits another store call.
func (m *Mongo) wait(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

// ListDatabases returns application database names in sorted order.
func (m *Mongo) ListDatabases(ctx context.Context) ([]string, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	names, err := m.client.ListDatabaseNames(ctx, bson.M{})
	metrics.RecordStoreOperation("list_databases", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	filtered := filterDatabases(names, m.databases)
	sort.Strings(filtered)
	return filtered, nil
}

// ListCollections returns the collection names of a database in sorted order.
func (m *Mongo) ListCollections(ctx context.Context, database string) ([]string, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	names, err := m.client.Database(database).ListCollectionNames(ctx, bson.M{})
	metrics.RecordStoreOperation("list_collections", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections of %s: %w", database, err)
	}

	sort.Strings(names)
	return names, nil
}

// ReadDocuments returns all documents of a collection, filtered to those
// modified strictly after modifiedAfter when it is non-nil.
func (m *Mongo) ReadDocuments(ctx context.Context, database, collection string, modifiedAfter *time.Time) ([]Document, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if modifiedAfter != nil {
		filter[m.modifiedField] = bson.M{"$gt": *modifiedAfter}
	}

	start := time.Now()
	cursor, err := m.client.Database(database).Collection(collection).Find(ctx, filter)
	if err != nil {
		metrics.RecordStoreOperation("read_documents", time.Since(start), err)
		return nil, fmt.Errorf("failed to query %s.%s: %w", database, collection, err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			metrics.RecordStoreOperation("read_documents", time.Since(start), err)
			return nil, fmt.Errorf("failed to decode document from %s.%s: %w", database, collection, err)
		}
		docs = append(docs, doc)
	}
	err = cursor.Err()
	metrics.RecordStoreOperation("read_documents", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("cursor failed on %s.%s: %w", database, collection, err)
	}

	return docs, nil
}

// UpsertDocument replaces the document with the same identity, inserting
// it when absent. Documents without an identity are inserted as new.
func (m *Mongo) UpsertDocument(ctx context.Context, database, collection string, doc Document) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	coll := m.client.Database(database).Collection(collection)

	start := time.Now()
	id, ok := doc.ID()
	var err error
	if ok {
		_, err = coll.ReplaceOne(ctx, bson.M{IDField: id}, doc, options.Replace().SetUpsert(true))
	} else {
		_, err = coll.InsertOne(ctx, doc)
	}
	metrics.RecordStoreOperation("upsert_document", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s.%s: %w", database, collection, err)
	}
	return nil
}

// Ping verifies connectivity to the store.
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := m.client.Ping(ctx, readpref.Primary())
	metrics.RecordStoreOperation("ping", time.Since(start), err)
	return err
}

// Close disconnects from the store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
