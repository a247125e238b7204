// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # MongoDB Container
//
// The MongoContainer provides a real MongoDB instance for exercising the backup
// and restore engines against actual collections:
//
//	func TestBackupRoundTrip(t *testing.T) {
//	    ctx := context.Background()
//	    mc, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer mc.Terminate(ctx)
//
//	    store, err := docstore.Connect(ctx, &config.MongoConfig{
//	        URI:      mc.URI,
//	        Database: "vcarpool_test",
//	    })
//	    // Seed collections, run a backup, restore into a fresh database.
//	}
//
// # Webhook Capture
//
// MockWebhookServer records notification deliveries so disaster recovery tests
// can assert on contact fan-out without a real receiver.
//
// # Benefits Over Mocks
//
// Using real containers provides several advantages:
//   - Tests validate actual driver and server behavior (cursors, write concerns)
//   - No mock drift (mocks getting out of sync with the real wire protocol)
//   - Restore batching and upsert semantics run against a production-equivalent server
//
// # CI Considerations
//
// These tests require Docker and network access. In CI:
//   - Self-hosted runners have Docker pre-installed
//   - Container images are cached between runs
//   - Tests are skipped gracefully if Docker is unavailable
//
// # Network Requirements
//
// First run may need to download container images. Subsequent runs use cached images.
package testinfra
