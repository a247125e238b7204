// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// breakerName labels the mirror breaker in logs and metrics.
const breakerName = "artifact-mirror"

// MirroredStore writes to a primary store and mirrors to a secondary,
// typically S3. The primary is authoritative: its errors propagate, while
// mirror failures are logged, counted and absorbed so an unreachable
// bucket never fails a backup. A circuit breaker stops hammering the
// mirror while it is down. Reads fall back to the mirror when the primary
// has lost an artifact.
type MirroredStore struct {
	primary Store
	mirror  Store
	breaker *gobreaker.CircuitBreaker[interface{}]
	log     zerolog.Logger
}

// NewMirroredStore wraps primary with best-effort mirroring to mirror.
func NewMirroredStore(primary, mirror Store) *MirroredStore {
	log := logging.Component("artifact")
	s := &MirroredStore{
		primary: primary,
		mirror:  mirror,
		log:     log,
	}
	s.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := counts.Requests >= 10 && failureRatio >= 0.6
			if shouldTrip {
				log.Warn().
					Str("breaker", breakerName).
					Uint32("requests", counts.Requests).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_ratio", failureRatio).
					Msg("Circuit breaker tripping")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(stateToFloat(gobreaker.StateClosed))
	return s
}

// execute runs op through the breaker and classifies the outcome for the
// mirror operation counter.
func (s *MirroredStore) execute(operation string, op func() error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	switch {
	case err == nil:
		metrics.MirrorOperationsTotal.WithLabelValues(operation, "ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.MirrorOperationsTotal.WithLabelValues(operation, "rejected").Inc()
	default:
		metrics.MirrorOperationsTotal.WithLabelValues(operation, "error").Inc()
	}
	return err
}

// Put writes to the primary first. Only a primary failure is returned,
// the mirror write is best effort.
func (s *MirroredStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.primary.Put(ctx, key, data); err != nil {
		return err
	}
	if err := s.execute("put", func() error {
		return s.mirror.Put(ctx, key, data)
	}); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Mirror write failed")
	}
	return nil
}

// Get prefers the primary and falls back to the mirror when the primary
// does not have the artifact.
func (s *MirroredStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.primary.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	var fallback []byte
	var missing bool
	mirrorErr := s.execute("get", func() error {
		var gerr error
		fallback, gerr = s.mirror.Get(ctx, key)
		if errors.Is(gerr, ErrNotFound) {
			// A healthy mirror without the artifact is not a failure.
			missing = true
			return nil
		}
		return gerr
	})
	if mirrorErr != nil || missing {
		return nil, err
	}
	s.log.Warn().Str("key", key).Msg("Artifact served from mirror, primary copy missing")
	return fallback, nil
}

func (s *MirroredStore) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if merr := s.execute("delete", func() error {
		derr := s.mirror.Delete(ctx, key)
		if errors.Is(derr, ErrNotFound) {
			return nil
		}
		return derr
	}); merr != nil {
		s.log.Warn().Err(merr).Str("key", key).Msg("Mirror delete failed")
	}
	return err
}

func (s *MirroredStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed, err := s.primary.DeletePrefix(ctx, prefix)
	if merr := s.execute("delete", func() error {
		_, derr := s.mirror.DeletePrefix(ctx, prefix)
		return derr
	}); merr != nil {
		s.log.Warn().Err(merr).Str("prefix", prefix).Msg("Mirror prefix delete failed")
	}
	return removed, err
}

// List and Exists consult only the primary. The mirror may lag behind
// while its breaker is open, so it is never treated as an inventory.
func (s *MirroredStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.primary.List(ctx, prefix)
}

func (s *MirroredStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.primary.Exists(ctx, key)
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
