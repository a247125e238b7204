// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package notify

import (
	"context"
	"errors"
)

// notificationTopic is the stream topic notifications publish under. The
// triggering event name travels inside the payload so the topic space
// stays separate from first-class lifecycle events.
const notificationTopic = "notification"

// Publisher is the slice of the event bus the events channel needs.
// Satisfied by events.Publisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// EventsChannel republishes notifications onto the NATS lifecycle stream
// so platform consumers (the carpool app's admin surface, external
// alerting) see DR announcements alongside backup events.
type EventsChannel struct {
	publisher Publisher
}

// eventPayload mirrors webhookPayload for stream consumers.
type eventPayload struct {
	Event    string  `json:"event"`
	Severity string  `json:"severity"`
	Subject  string  `json:"subject"`
	Body     string  `json:"body"`
	Plan     string  `json:"plan,omitempty"`
	Contact  Contact `json:"contact"`

	Details map[string]string `json:"details,omitempty"`
}

// NewEventsChannel returns a channel publishing through pub.
func NewEventsChannel(pub Publisher) *EventsChannel {
	return &EventsChannel{publisher: pub}
}

// Name implements Channel.
func (c *EventsChannel) Name() string { return ChannelEvents }

// Send implements Channel.
func (c *EventsChannel) Send(ctx context.Context, contact Contact, msg Message) error {
	if c.publisher == nil {
		return errors.New("event publishing is not configured")
	}
	return c.publisher.Publish(ctx, notificationTopic, eventPayload{
		Event:    msg.Event,
		Severity: msg.Severity,
		Subject:  msg.Subject,
		Body:     msg.Body,
		Plan:     msg.Plan,
		Contact:  contact,
		Details:  msg.Details,
	})
}
