// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultMongoImage is the MongoDB image matching the platform's
	// production server version.
	DefaultMongoImage = "mongo:7.0"

	// DefaultMongoPort is the MongoDB wire protocol port.
	DefaultMongoPort = "27017"
)

// MongoContainer represents a running MongoDB container for testing.
type MongoContainer struct {
	testcontainers.Container
	URI string
}

// MongoOption configures the MongoDB container.
type MongoOption func(*mongoConfig)

type mongoConfig struct {
	image        string
	username     string
	password     string
	startTimeout time.Duration
}

// WithMongoImage sets a custom MongoDB Docker image.
func WithMongoImage(image string) MongoOption {
	return func(c *mongoConfig) {
		c.image = image
	}
}

// WithRootCredentials enables authentication with the given root account.
// Without this option the container runs with auth disabled, which is the
// fastest setup for most tests.
func WithRootCredentials(username, password string) MongoOption {
	return func(c *mongoConfig) {
		c.username = username
		c.password = password
	}
}

// WithMongoStartTimeout sets the timeout for waiting for MongoDB to accept
// connections.
func WithMongoStartTimeout(timeout time.Duration) MongoOption {
	return func(c *mongoConfig) {
		c.startTimeout = timeout
	}
}

// NewMongoContainer creates and starts a new MongoDB container for testing.
//
// Example:
//
//	ctx := context.Background()
//	mc, err := NewMongoContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer mc.Terminate(ctx)
//
//	client, err := mc.Connect(ctx)
func NewMongoContainer(ctx context.Context, opts ...MongoOption) (*MongoContainer, error) {
	cfg := &mongoConfig{
		image:        DefaultMongoImage,
		startTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMongoPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMongoPort+"/tcp"),
			wait.ForLog("Waiting for connections"),
		).WithStartupTimeout(cfg.startTimeout),
	}
	if cfg.username != "" {
		req.Env = map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": cfg.username,
			"MONGO_INITDB_ROOT_PASSWORD": cfg.password,
		}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mongo container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultMongoPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	if cfg.username != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%s", cfg.username, cfg.password, host, port.Port())
	}

	return &MongoContainer{
		Container: container,
		URI:       uri,
	}, nil
}

// Connect establishes a verified client connection to the container.
// The caller owns the client and must Disconnect it.
func (c *MongoContainer) Connect(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx) //nolint:errcheck
		return nil, fmt.Errorf("ping: %w", err)
	}

	return client, nil
}

// Seed inserts documents into the given database and collection. It opens
// and closes its own connection so callers can seed before wiring the code
// under test.
func (c *MongoContainer) Seed(ctx context.Context, database, collection string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}

	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx) //nolint:errcheck

	if _, err := client.Database(database).Collection(collection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed %s.%s: %w", database, collection, err)
	}

	return nil
}

// Terminate stops and removes the MongoDB container.
func (c *MongoContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// Logs returns the container logs for debugging.
func (c *MongoContainer) Logs(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read logs: %w", err)
	}

	return string(logs), nil
}

// TripFixtures generates deterministic carpool trip documents for seeding.
// IDs are stable across runs so restore assertions can match on them.
func TripFixtures(n int) []interface{} {
	docs := make([]interface{}, 0, n)
	base := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		docs = append(docs, bson.M{
			"_id":         fmt.Sprintf("trip-%04d", i),
			"driverId":    fmt.Sprintf("user-%03d", i%25),
			"origin":      "Redmond",
			"destination": "Seattle",
			"seats":       1 + i%3,
			"departureAt": base.Add(time.Duration(i) * time.Hour),
			"status":      "scheduled",
		})
	}

	return docs
}
