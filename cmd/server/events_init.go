// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package main

import (
	"context"
	"fmt"

	"github.com/vedprakash-m/vcarpool-dr/internal/config"
	"github.com/vedprakash-m/vcarpool-dr/internal/events"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// EventsComponents holds the lifecycle-event pieces for shutdown ordering.
// All methods are safe on a nil receiver, so main wires the events layer
// unconditionally and a disabled config collapses to no-ops.
type EventsComponents struct {
	server    *events.EmbeddedServer
	publisher *events.Publisher
	announcer *events.Announcer
}

// initEvents brings up the events layer when VCDR_EVENTS_ENABLED=true: the
// embedded JetStream server (standalone mode), the stream, and the publisher
// that backup, restore, and DR completions announce on.
func initEvents(ctx context.Context, cfg *config.Config) (*EventsComponents, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Lifecycle events disabled (VCDR_EVENTS_ENABLED=false)")
		return nil, nil
	}

	components := &EventsComponents{}

	// Step 1: embedded JetStream server, or an external broker.
	var url string
	if cfg.Events.Embedded {
		serverCfg := events.DefaultServerConfig(cfg.Events.EmbeddedPort, cfg.Events.EmbeddedStoreDir)
		server, err := events.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("embedded events server: %w", err)
		}
		components.server = server
		url = server.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	} else {
		url = cfg.Events.URL
		logging.Info().Str("url", url).Msg("Using external NATS server")
	}

	// Step 2: make sure the stream exists before anything publishes to it.
	streamCfg := events.DefaultStreamConfig(cfg.Events.Stream, cfg.Events.SubjectPrefix)
	if err := events.ProvisionStream(ctx, url, streamCfg); err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("provision stream %q: %w", cfg.Events.Stream, err)
	}

	// Step 3: publisher, and the fire-and-forget announcer over it.
	pub, err := events.NewPublisher(events.Options{
		URL:           url,
		SubjectPrefix: cfg.Events.SubjectPrefix,
		MaxReconnects: cfg.Events.MaxReconnects,
		ReconnectWait: cfg.Events.ReconnectWait,
	})
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("events publisher: %w", err)
	}
	components.publisher = pub
	components.announcer = events.NewAnnouncer(pub, 0)

	logging.Info().
		Str("stream", cfg.Events.Stream).
		Str("subject_prefix", cfg.Events.SubjectPrefix).
		Msg("Lifecycle events initialized")

	return components, nil
}

// Publisher returns the events publisher. Nil when events are disabled.
func (c *EventsComponents) Publisher() *events.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Announcer returns the lifecycle announcer. Nil when events are disabled.
func (c *EventsComponents) Announcer() *events.Announcer {
	if c == nil {
		return nil
	}
	return c.announcer
}

// Server returns the embedded server, or nil when it is not running
// (events disabled, or an external broker is in use).
func (c *EventsComponents) Server() *events.EmbeddedServer {
	if c == nil {
		return nil
	}
	return c.server
}

// Shutdown stops the events layer. In-flight announcements drain before the
// publisher closes, and the embedded server stops last so nothing publishes
// into a dead broker. Safe to call again after the supervisor has already
// stopped the server.
func (c *EventsComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	if c.announcer != nil {
		c.announcer.Wait()
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing events publisher")
		}
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}
}
