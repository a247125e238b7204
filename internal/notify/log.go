// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// LogChannel writes each notification as a structured log entry. It is
// always registered so every broadcast leaves at least a log trail, and
// critical messages go through the critical alert path for downstream
// paging rules.
type LogChannel struct{}

// NewLogChannel returns the log-backed notification channel.
func NewLogChannel() *LogChannel {
	return &LogChannel{}
}

// Name implements Channel.
func (c *LogChannel) Name() string { return ChannelLog }

// Send implements Channel. It cannot fail.
func (c *LogChannel) Send(_ context.Context, contact Contact, msg Message) error {
	var evt *zerolog.Event
	switch msg.Severity {
	case SeverityCritical:
		evt = logging.Critical()
	case SeverityWarning:
		evt = logging.Warn()
	default:
		evt = logging.Info()
	}

	evt = evt.
		Str("channel", ChannelLog).
		Str("event", msg.Event).
		Str("contact", contact.Name).
		Str("subject", msg.Subject)
	if contact.Role != "" {
		evt = evt.Str("role", contact.Role)
	}
	if contact.Email != "" {
		evt = evt.Str("email", contact.Email)
	}
	if msg.Plan != "" {
		evt = evt.Str("plan", msg.Plan)
	}
	for k, v := range msg.Details {
		evt = evt.Str(k, v)
	}
	evt.Msg(msg.Body)
	return nil
}
