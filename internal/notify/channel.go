// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
channel.go - Notification Channel Abstraction

Defines the Channel interface every notification transport implements,
the Contact and Message types flowing through it, and the Registry that
maps channel names to implementations.

Channels must be safe for concurrent use: the Notifier dispatches from a
background goroutine while the ops API may probe channels at any time.
*/

//nolint:staticcheck // File documentation, not package doc
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Channel name constants for the built-in transports.
const (
	ChannelLog     = "log"
	ChannelWebhook = "webhook"
	ChannelEvents  = "events"
)

// Message severities, from routine to page-someone.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Contact is one person on the recovery plan's notification list.
type Contact struct {
	// Name is the contact's display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Role describes why this contact is on the list, for example
	// "primary on-call" or "engineering manager".
	Role string `json:"role" yaml:"role"`

	// Email is informational routing data carried into the payload.
	// The service does not send mail itself.
	Email string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`

	// Phone is informational routing data carried into the payload.
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Message is one alert to deliver to the plan contacts.
type Message struct {
	// Event names what happened, for example "dr.started" or
	// "backup.failed".
	Event string `json:"event"`

	// Severity is one of the Severity* constants.
	Severity string `json:"severity"`

	// Subject is a one-line summary suitable for an alert title.
	Subject string `json:"subject"`

	// Body carries the full human-readable text.
	Body string `json:"body"`

	// Plan is the recovery plan name when a plan is involved.
	Plan string `json:"plan,omitempty"`

	// Timestamp is when the triggering event happened.
	Timestamp time.Time `json:"timestamp"`

	// Details carries small key/value context pairs, such as a backup
	// ID or a failed step name.
	Details map[string]string `json:"details,omitempty"`
}

// Channel delivers a Message to a single Contact over one transport.
type Channel interface {
	// Name returns the unique channel identifier used for registration,
	// metrics labels and log fields.
	Name() string

	// Send delivers the message to the contact. Implementations must
	// honor ctx cancellation and return an error describing the first
	// failure; retries are the caller's concern.
	Send(ctx context.Context, contact Contact, msg Message) error
}

// Registry maps channel names to implementations.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry returns an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel. Registering a nil channel or a duplicate name
// is a wiring bug and returns an error.
func (r *Registry) Register(ch Channel) error {
	if ch == nil {
		return errors.New("cannot register nil channel")
	}
	name := ch.Name()
	if name == "" {
		return errors.New("cannot register channel with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[name]; exists {
		return fmt.Errorf("channel %q already registered", name)
	}
	r.channels[name] = ch
	return nil
}

// Get returns the named channel.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("unknown notification channel %q", name)
	}
	return ch, nil
}

// List returns the registered channel names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateWebhookURL checks that a webhook target is a usable HTTP(S) URL.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("webhook URL is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("webhook URL has no host")
	}
	return nil
}
