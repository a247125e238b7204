// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
scheduler.go - Fixed-Interval Scheduling

The scheduler owns three independent fixed-interval timers: full backups,
incremental backups and retention sweeps. Each timer is its own
IntervalService so the supervision tree restarts them independently and a
failure in one never stalls the others.

Re-entrancy:
The service facade guards each operation kind with a non-blocking lock.
When a tick fires while the previous run of the same kind is still
executing, the facade returns ErrRunInProgress and the tick is skipped
with a warning instead of queueing behind the running one.

Errors and panics inside a tick are contained; the timer keeps firing.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
)

// ScheduledOp is one operation a timer invokes on each tick.
type ScheduledOp func(ctx context.Context) error

// IntervalService runs one operation at a fixed interval until its context
// is canceled. It implements suture's Service contract through Serve and
// String.
type IntervalService struct {
	kind     string
	interval time.Duration
	op       ScheduledOp
	log      zerolog.Logger
}

// NewIntervalService creates a timer for one operation kind.
func NewIntervalService(kind string, interval time.Duration, op ScheduledOp) *IntervalService {
	return &IntervalService{
		kind:     kind,
		interval: interval,
		op:       op,
		log:      logging.Component("scheduler"),
	}
}

// Serve fires the operation every interval until ctx is canceled.
func (s *IntervalService) Serve(ctx context.Context) error {
	s.log.Info().
		Str("kind", s.kind).
		Dur("interval", s.interval).
		Msg("Scheduler timer started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("kind", s.kind).Msg("Scheduler timer stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one scheduled operation. Errors and panics are contained here;
// a failed run never cancels or delays subsequent ticks of any timer.
func (s *IntervalService) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordScheduledRun(s.kind, "error")
			s.log.Error().
				Str("kind", s.kind).
				Interface("panic", r).
				Msg("Scheduled run panicked")
		}
	}()

	err := s.op(ctx)
	switch {
	case err == nil:
		metrics.RecordScheduledRun(s.kind, "ok")
	case errors.Is(err, ErrRunInProgress):
		metrics.RecordScheduledRun(s.kind, "skipped")
		s.log.Warn().
			Str("kind", s.kind).
			Msg("Previous run still in progress, skipping this tick")
	default:
		metrics.RecordScheduledRun(s.kind, "error")
		s.log.Error().
			Err(err).
			Str("kind", s.kind).
			Msg("Scheduled run failed")
	}
}

// String names the service in supervision logs.
func (s *IntervalService) String() string {
	return "scheduler-" + s.kind
}

// ScheduleIntervals configures the three timer periods.
type ScheduleIntervals struct {
	Full        time.Duration
	Incremental time.Duration
	Retention   time.Duration
}

// Scheduler bundles the three timers driving the backup lifecycle.
type Scheduler struct {
	services []*IntervalService
}

// NewScheduler wires the timers to the service facade. Scheduled backup
// runs carry the scheduled trigger and a nil since, so incrementals chain
// off the most recent completed backup.
func NewScheduler(svc *Service, intervals ScheduleIntervals) *Scheduler {
	full := NewIntervalService("full", intervals.Full, func(ctx context.Context) error {
		_, err := svc.PerformFullBackup(ctx, TriggerScheduled, "Scheduled full backup")
		return err
	})
	incremental := NewIntervalService("incremental", intervals.Incremental, func(ctx context.Context) error {
		_, err := svc.PerformIncrementalBackup(ctx, nil, TriggerScheduled, "Scheduled incremental backup")
		return err
	})
	retention := NewIntervalService("retention", intervals.Retention, func(ctx context.Context) error {
		_, err := svc.ApplyRetention(ctx)
		return err
	})
	return &Scheduler{services: []*IntervalService{full, incremental, retention}}
}

// Services returns the timers for registration in the supervision tree.
func (s *Scheduler) Services() []*IntervalService {
	return s.services
}
