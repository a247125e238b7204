// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
publisher.go - Resilient JetStream Publisher

Wraps a Watermill NATS publisher with envelope construction, message ID
deduplication, a circuit breaker, and publish metrics. The connection
retries forever by default; the breaker keeps a dead broker from adding
latency to every lifecycle hook in the meantime.
*/

//nolint:staticcheck // File documentation, not package doc
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

// reconnectBuffer is the NATS client-side buffer for writes issued while
// disconnected.
const reconnectBuffer = 8 * 1024 * 1024

const breakerName = "events-publish"

// Options configures the publisher connection.
type Options struct {
	// URL of the NATS server.
	URL string

	// SubjectPrefix is prepended to every topic, keeping DR events in
	// their own subject hierarchy on shared brokers.
	SubjectPrefix string

	// MaxReconnects caps reconnection attempts. Negative means unlimited.
	MaxReconnects int

	// ReconnectWait is the pause between reconnection attempts.
	ReconnectWait time.Duration
}

// DefaultOptions returns production defaults for url.
func DefaultOptions(url string) Options {
	return Options{
		URL:           url,
		SubjectPrefix: "vcdr",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher publishes lifecycle events to JetStream. Safe for concurrent
// use. It satisfies notify.Publisher.
type Publisher struct {
	backend message.Publisher
	breaker *gobreaker.CircuitBreaker[interface{}]
	prefix  string
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to NATS and returns a publisher. The JetStream
// stream must already exist; see ProvisionStream.
func NewPublisher(opts Options) (*Publisher, error) {
	logger := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(opts.MaxReconnects),
		natsgo.ReconnectWait(opts.ReconnectWait),
		natsgo.ReconnectBufSize(reconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         opts.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by ProvisionStream
			TrackMsgId:    true,  // Enable deduplication
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	backend, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return newPublisherWithBackend(backend, opts), nil
}

// newPublisherWithBackend finishes construction around any Watermill
// publisher. Split out so tests can inject a fake backend.
func newPublisherWithBackend(backend message.Publisher, opts Options) *Publisher {
	p := &Publisher{
		backend: backend,
		prefix:  opts.SubjectPrefix,
		log:     logging.Component("events"),
	}

	p.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.log.Warn().
				Str("breaker", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("Event publish breaker changed state")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, breakerStateString(from), breakerStateString(to)).Inc()
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(breakerStateFloat(gobreaker.StateClosed))

	return p
}

// Publish wraps payload in an Event envelope and publishes it under the
// prefixed topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.PublishEvent(ctx, NewEvent(topic, raw))
}

// PublishEvent publishes a pre-built envelope.
func (p *Publisher) PublishEvent(ctx context.Context, e *Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	data, err := MarshalEvent(e)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		return err
	}

	msg := message.NewMessage(e.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", e.Type)
	msg.Metadata.Set("service", e.Service)
	// The envelope ID doubles as Nats-Msg-Id so broker-side deduplication
	// catches redeliveries.
	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, e.EventID)
	}

	subject := e.Subject(p.prefix)
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.backend.Publish(subject, msg)
	})

	switch {
	case err == nil:
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "ok").Inc()
		p.log.Debug().Str("subject", subject).Str("event_id", e.EventID).Msg("Event published")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "rejected").Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	default:
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	}
}

// Close shuts the publisher down. Subsequent publishes fail with
// ErrPublisherClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.backend.Close()
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "open"
	}
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter.
type watermillLogger struct {
	log zerolog.Logger
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{log: logging.Component("watermill")}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(l.log.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(l.log.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.withFields(l.log.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.withFields(l.log.Trace(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &watermillLogger{log: ctx.Logger()}
}

func (l *watermillLogger) withFields(evt *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	return evt
}
