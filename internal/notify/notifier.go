// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
notifier.go - Fire-and-Forget Broadcast

The Notifier fans a Message out to every contact over every registered
channel. Broadcast returns immediately; a single background goroutine
walks the contacts in their configured order and attempts each channel
with a bounded per-send context. Failures are logged and counted, never
returned, so a dead webhook endpoint cannot stall or abort a disaster
recovery.
*/

//nolint:staticcheck // File documentation, not package doc
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// defaultSendTimeout bounds one channel send when no timeout is configured.
const defaultSendTimeout = 30 * time.Second

// Notifier broadcasts messages to plan contacts without blocking callers.
type Notifier struct {
	registry    *Registry
	sendTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// NewNotifier returns a Notifier dispatching through reg. A sendTimeout
// of zero selects the 30 second default.
func NewNotifier(reg *Registry, sendTimeout time.Duration) *Notifier {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Notifier{
		registry:    reg,
		sendTimeout: sendTimeout,
		log:         logging.Component("notify"),
	}
}

// Broadcast dispatches msg to every contact over every registered channel
// and returns without waiting for deliveries. Contacts are attempted in
// their configured order; there is no acknowledgment gating and no error
// feedback to the caller.
func (n *Notifier) Broadcast(contacts []Contact, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	channels := n.registry.List()
	if len(channels) == 0 {
		n.log.Warn().Str("event", msg.Event).Msg("No notification channels registered, dropping broadcast")
		return
	}
	if len(contacts) == 0 {
		n.log.Debug().Str("event", msg.Event).Msg("No contacts to notify")
		return
	}

	n.log.Info().
		Str("event", msg.Event).
		Str("severity", msg.Severity).
		Str("plan", msg.Plan).
		Int("contacts", len(contacts)).
		Strs("channels", channels).
		Msg("Dispatching notifications")

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, contact := range contacts {
			for _, name := range channels {
				n.deliver(name, contact, msg)
			}
		}
	}()
}

// Wait blocks until all in-flight broadcasts have been attempted. Called
// on shutdown so late notifications are not torn down mid-send.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// deliver attempts one send and records the outcome. Sends run detached
// from the triggering request so a canceled DR context cannot cut off
// notifications that are already owed.
func (n *Notifier) deliver(channelName string, contact Contact, msg Message) {
	ch, err := n.registry.Get(channelName)
	if err != nil {
		// Unreachable while the registry is append-only; kept so a
		// future deregistration path fails loudly instead of silently.
		n.log.Error().Err(err).Str("channel", channelName).Msg("Notification channel vanished")
		metrics.DRNotificationsTotal.WithLabelValues(channelName, "error").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
	defer cancel()

	if err := ch.Send(ctx, contact, msg); err != nil {
		n.log.Error().
			Err(err).
			Str("channel", channelName).
			Str("contact", contact.Name).
			Str("event", msg.Event).
			Msg("Notification delivery failed")
		metrics.DRNotificationsTotal.WithLabelValues(channelName, "error").Inc()
		return
	}

	n.log.Debug().
		Str("channel", channelName).
		Str("contact", contact.Name).
		Str("event", msg.Event).
		Msg("Notification delivered")
	metrics.DRNotificationsTotal.WithLabelValues(channelName, "ok").Inc()
}

// BuildRegistry assembles the standard channel set. The log channel is
// always present; the webhook channel joins when webhookURL is set and the
// events channel when a publisher is available.
func BuildRegistry(webhookURL string, webhookTimeout time.Duration, pub Publisher) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.Register(NewLogChannel()); err != nil {
		return nil, err
	}

	if webhookURL != "" {
		wh, err := NewWebhookChannel(webhookURL, webhookTimeout)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(wh); err != nil {
			return nil, err
		}
	}

	if pub != nil {
		if err := reg.Register(NewEventsChannel(pub)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
