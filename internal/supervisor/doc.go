// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package supervisor provides process supervision for the DR service using
suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running components. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful
shutdown.

# Overview

The supervisor tree organizes services into four layers for failure
isolation:

	RootSupervisor ("vcarpool-dr")
	├── DataSupervisor ("data-layer")
	│   ├── BadgerGCService (catalog and audit value log GC)
	│   └── AuditCleanupService (retention pruning)
	├── EventsSupervisor ("events-layer")
	│   └── EventsServerService (embedded NATS, standalone mode only)
	├── SchedulerSupervisor ("scheduler-layer")
	│   ├── IntervalService "full"
	│   ├── IntervalService "incremental"
	│   └── IntervalService "retention"
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A panicking scheduler timer doesn't affect API availability
  - BadgerDB maintenance failures don't impact in-flight backups
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Supervision events flow through sutureslog into the zerolog
    pipeline via logging.NewSlogLogger
  - Logs service starts, stops, failures, and restarts

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/vedprakash-m/vcarpool-dr/internal/logging"
	    "github.com/vedprakash-m/vcarpool-dr/internal/supervisor"
	    "github.com/vedprakash-m/vcarpool-dr/internal/supervisor/services"
	)

	func main() {
	    tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	    if err != nil {
	        log.Fatal(err)
	    }

	    // Add services to appropriate layers
	    tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	    for _, timer := range scheduler.Services() {
	        tree.AddSchedulerService(timer)
	    }
	    tree.AddDataService(services.NewBadgerGCService("catalog", db, 0))

	    // Start the tree (blocks until context canceled)
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

Background operation:

	errChan := tree.ServeBackground(ctx)

	// Do other setup...

	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Failure Handling

The supervisor uses a failure counter with exponential decay:

1. Each service failure increments the counter
2. Counter decays exponentially over time (FailureDecay seconds)
3. When counter exceeds FailureThreshold, supervisor enters backoff
4. During backoff, restarts are delayed by FailureBackoff duration
5. If failures continue, the child supervisor may be restarted by parent

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

The backup scheduler's IntervalService implements this contract natively,
so timers register on the tree without a wrapper. Components with a
Start/Stop lifecycle get a wrapper in the services subpackage.

# What Is NOT Supervised

The MongoDB document store client is intentionally not supervised:
  - The driver maintains its own connection pool with reconnection
  - Crashes inside a backup run are contained by the scheduler tick

The disaster recovery orchestrator is request-driven, not long-running,
so it lives behind the API rather than in the tree.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes:
  - Goroutines not respecting context cancellation
  - Blocked network I/O without deadlines
  - Mutex deadlocks during shutdown

# See Also

  - internal/supervisor/services: Service wrappers
  - internal/backup: IntervalService scheduler timers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
