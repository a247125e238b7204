// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfig holds JetStream stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns retention-bounded defaults capturing every
// subject under the prefix.
func DefaultStreamConfig(name, subjectPrefix string) StreamConfig {
	return StreamConfig{
		Name:            name,
		Subjects:        []string{subjectPrefix + ".>"},
		MaxAge:          30 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         1_000_000,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// StreamManager handles JetStream stream lifecycle.
type StreamManager struct {
	js  jetstream.JetStream
	cfg StreamConfig
}

// NewStreamManager creates a stream manager over an existing connection.
func NewStreamManager(nc *nats.Conn, cfg StreamConfig) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &StreamManager{js: js, cfg: cfg}, nil
}

// EnsureStream creates the stream or updates its limits to match the
// configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        m.cfg.Name,
		Subjects:    m.cfg.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      m.cfg.MaxAge,
		MaxBytes:    m.cfg.MaxBytes,
		MaxMsgs:     m.cfg.MaxMsgs,
		Duplicates:  m.cfg.DuplicateWindow,
		Replicas:    m.cfg.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	if _, err := m.js.Stream(ctx, m.cfg.Name); err == nil {
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream: %w", err)
		}
		return stream, nil
	}

	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}
	return stream, nil
}

// Info returns current stream state.
func (m *StreamManager) Info(ctx context.Context) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, m.cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream.Info(ctx)
}

// ProvisionStream dials url, ensures the stream exists with the configured
// limits, and disconnects. Called once at startup before the publisher
// connects with AutoProvision disabled.
func ProvisionStream(ctx context.Context, url string, cfg StreamConfig) error {
	nc, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	mgr, err := NewStreamManager(nc, cfg)
	if err != nil {
		return err
	}
	if _, err := mgr.EnsureStream(ctx); err != nil {
		return err
	}
	return nil
}
