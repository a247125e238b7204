// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package services

import (
	"context"
	"errors"
	"time"
)

// EventsServerRunner matches the embedded NATS server lifecycle.
//
// Satisfied by *events.EmbeddedServer:
//   - IsRunning() bool
//   - Shutdown(ctx context.Context) error
//
// The embedded server starts accepting connections during construction,
// before the tree runs, because the stream provisioner and the publisher
// connect to it at wiring time. The wrapper therefore watches a running
// server instead of starting one.
type EventsServerRunner interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EventsServerService supervises the embedded NATS server.
//
//  1. Periodically checks that the server is still accepting connections
//  2. Waits for context cancellation
//  3. Shuts the server down with the configured timeout
//
// If the server dies, Serve returns an error and suture applies its
// restart policy. The restarted watch will keep failing until an
// operator intervenes, surfacing the outage in supervision logs with
// backoff instead of silently losing lifecycle events.
type EventsServerService struct {
	server          EventsServerRunner
	checkInterval   time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewEventsServerService creates a new embedded NATS service wrapper.
func NewEventsServerService(server EventsServerRunner, shutdownTimeout time.Duration) *EventsServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventsServerService{
		server:          server,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
		name:            "events-server",
	}
}

// Serve implements suture.Service.
func (s *EventsServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Use a fresh context for shutdown since the original is canceled
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()

			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.server.IsRunning() {
				return errors.New("events server stopped unexpectedly")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *EventsServerService) String() string {
	return s.name
}
