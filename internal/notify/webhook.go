// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const (
	// defaultWebhookTimeout bounds a single webhook POST when the
	// configuration does not set one.
	defaultWebhookTimeout = 30 * time.Second

	// maxWebhookResponseBytes caps how much of an error response body is
	// read back for diagnostics.
	maxWebhookResponseBytes = 4096

	webhookUserAgent = "vcarpool-dr/1.0"
)

// WebhookChannel POSTs notifications as JSON to a fixed operator endpoint
// (an incident bridge, a chat-ops relay, a ticketing inbox).
type WebhookChannel struct {
	url    string
	client *http.Client
}

// webhookPayload is the wire shape of one notification.
type webhookPayload struct {
	Event     string            `json:"event"`
	Severity  string            `json:"severity"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Plan      string            `json:"plan,omitempty"`
	Contact   string            `json:"contact"`
	Role      string            `json:"role,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewWebhookChannel returns a webhook channel targeting url. A timeout of
// zero selects the 30 second default.
func NewWebhookChannel(url string, timeout time.Duration) (*WebhookChannel, error) {
	if err := ValidateWebhookURL(url); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Channel.
func (c *WebhookChannel) Name() string { return ChannelWebhook }

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, contact Contact, msg Message) error {
	payload := webhookPayload{
		Event:     msg.Event,
		Severity:  msg.Severity,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Plan:      msg.Plan,
		Contact:   contact.Name,
		Role:      contact.Role,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Timestamp: msg.Timestamp,
		Details:   msg.Details,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
