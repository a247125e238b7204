// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
orchestrator.go - Disaster Recovery Execution

Execute runs the loaded plan: alert contacts, walk the steps in their
configured order, fail fast on the first step error, then verify system
health. Exactly one execution can be in flight; a second Execute while
one is running returns ErrRunInProgress for the API to surface as a
conflict.

Step semantics:

	automated + script   run through the command runner, abort on error
	automated, no script nothing to run, logged and skipped
	manual               "manual intervention required" warning, proceed

The contact broadcast is fire and forget. A dead notification endpoint
never delays or aborts recovery.
*/

//nolint:staticcheck // File documentation, not package doc
package dr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/command"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/metrics"
	"github.com/vedprakash-m/vcarpool-dr/internal/notify"
)

var (
	// ErrRunInProgress is returned when an execution is already running.
	ErrRunInProgress = errors.New("disaster recovery already in progress")

	// ErrStepFailed wraps the failing step's error during execution.
	ErrStepFailed = errors.New("recovery step failed")
)

// Step outcome values recorded on StepResult.
const (
	StepCompleted = "completed"
	StepFailed    = "failed"
	StepManual    = "manual"
	StepSkipped   = "skipped"
)

// Execution status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DRStatus gauge values. The gauge's zero value is idle.
const (
	gaugeRunning   = 1
	gaugeFailed    = 2
	gaugeCompleted = 3
)

// HealthChecker verifies the platform is serviceable after recovery.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Options bounds execution timing.
type Options struct {
	// ScriptTimeout caps one automated step's script. Zero selects 10
	// minutes.
	ScriptTimeout time.Duration

	// HealthCheckTimeout caps the post-recovery health check. Zero
	// selects 30 seconds.
	HealthCheckTimeout time.Duration
}

// StepResult is the outcome of one visited step.
type StepResult struct {
	ID        string        `json:"id"`
	Automated bool          `json:"automated"`
	Status    string        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// ExecutionResult summarizes one recovery run.
type ExecutionResult struct {
	Plan          string        `json:"plan"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	StepsTotal    int           `json:"steps_total"`
	StepsExecuted int           `json:"steps_executed"`
	FailedStep    string        `json:"failed_step,omitempty"`
	HealthOK      bool          `json:"health_ok"`
	RTOExceeded   bool          `json:"rto_exceeded"`
	Error         string        `json:"error,omitempty"`
	Steps         []StepResult  `json:"steps"`
}

// Orchestrator executes the recovery plan.
type Orchestrator struct {
	plan     *Plan
	notifier *notify.Notifier
	runner   command.Runner
	health   HealthChecker
	opts     Options
	log      zerolog.Logger

	// Held for the duration of Execute. TryLock keeps a second recovery
	// from interleaving with a running one.
	mu sync.Mutex

	onExecuted func(*ExecutionResult)
}

// NewOrchestrator wires a plan to its collaborators. health may be nil to
// skip post-recovery verification.
func NewOrchestrator(plan *Plan, notifier *notify.Notifier, runner command.Runner, health HealthChecker, opts Options) *Orchestrator {
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = 10 * time.Minute
	}
	if opts.HealthCheckTimeout <= 0 {
		opts.HealthCheckTimeout = 30 * time.Second
	}
	return &Orchestrator{
		plan:     plan,
		notifier: notifier,
		runner:   runner,
		health:   health,
		opts:     opts,
		log:      logging.Component("dr"),
	}
}

// SetOnExecuted registers a hook receiving every terminal result. Must be
// set before the orchestrator starts handling requests.
func (o *Orchestrator) SetOnExecuted(fn func(*ExecutionResult)) {
	o.onExecuted = fn
}

// Plan returns the loaded plan.
func (o *Orchestrator) Plan() *Plan {
	return o.plan
}

// Execute runs the plan. The returned result is non-nil whenever execution
// started, including failed runs.
func (o *Orchestrator) Execute(ctx context.Context) (*ExecutionResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	start := time.Now()
	metrics.DRStatus.Set(gaugeRunning)

	result := &ExecutionResult{
		Plan:       o.plan.Name,
		StartedAt:  start.UTC(),
		StepsTotal: len(o.plan.Steps),
		Steps:      make([]StepResult, 0, len(o.plan.Steps)),
	}

	logging.Critical().
		Str("plan", o.plan.Name).
		Int("steps", len(o.plan.Steps)).
		Int("contacts", len(o.plan.Contacts)).
		Msg("Disaster recovery initiated")

	o.notifier.Broadcast(o.plan.Contacts, notify.Message{
		Event:    "dr.started",
		Severity: notify.SeverityCritical,
		Subject:  fmt.Sprintf("Disaster recovery initiated: %s", o.plan.Name),
		Body: fmt.Sprintf("Recovery plan %s is executing %d steps against %s",
			o.plan.Name, len(o.plan.Steps), strings.Join(o.plan.CriticalComponents, ", ")),
		Plan:    o.plan.Name,
		Details: map[string]string{"steps": strconv.Itoa(len(o.plan.Steps))},
	})

	var runErr error
	for _, step := range o.plan.Steps {
		stepResult := o.executeStep(ctx, step)
		result.Steps = append(result.Steps, stepResult)
		metrics.DRStepDuration.WithLabelValues(step.ID).Observe(stepResult.Duration.Seconds())

		if stepResult.Status == StepFailed {
			result.FailedStep = step.ID
			runErr = fmt.Errorf("%w: %s: %s", ErrStepFailed, step.ID, stepResult.Error)
			o.log.Error().
				Str("step", step.ID).
				Str("cause", stepResult.Error).
				Int("steps_remaining", len(o.plan.Steps)-len(result.Steps)).
				Msg("Recovery step failed, aborting remaining steps")
			break
		}
		result.StepsExecuted++
	}

	if runErr == nil && o.health != nil {
		hctx, cancel := context.WithTimeout(ctx, o.opts.HealthCheckTimeout)
		err := o.health.CheckHealth(hctx)
		cancel()
		if err != nil {
			runErr = fmt.Errorf("post-recovery health check: %w", err)
			o.log.Error().Err(err).Msg("Post-recovery health check failed")
		} else {
			result.HealthOK = true
			o.log.Info().Msg("Post-recovery health check passed")
		}
	}

	result.Duration = time.Since(start)
	if rto := o.plan.RTO.Std(); rto > 0 && result.Duration > rto {
		result.RTOExceeded = true
		o.log.Warn().
			Dur("elapsed", result.Duration).
			Dur("rto", rto).
			Msg("Recovery exceeded the plan RTO")
	}

	if runErr != nil {
		result.Status = StatusFailed
		result.Error = runErr.Error()
		metrics.RecordDRRun(StatusFailed, result.Duration)
		metrics.DRStatus.Set(gaugeFailed)
	} else {
		result.Status = StatusCompleted
		metrics.RecordDRRun(StatusCompleted, result.Duration)
		metrics.DRStatus.Set(gaugeCompleted)
		o.log.Info().
			Dur("duration", result.Duration).
			Int("steps_executed", result.StepsExecuted).
			Msg("Disaster recovery completed")
	}

	o.notifyOutcome(result)
	if o.onExecuted != nil {
		o.onExecuted(result)
	}
	return result, runErr
}

// executeStep visits one step and reports its outcome. Only automated
// steps with a script can fail.
func (o *Orchestrator) executeStep(ctx context.Context, step RecoveryStep) StepResult {
	stepStart := time.Now()
	result := StepResult{ID: step.ID, Automated: step.Automated}

	switch {
	case !step.Automated:
		o.log.Warn().
			Str("step", step.ID).
			Str("description", step.Description).
			Msg("Manual intervention required, continuing without waiting")
		result.Status = StepManual

	case step.Script == "":
		o.log.Info().Str("step", step.ID).Msg("Automated step has no script, skipping")
		result.Status = StepSkipped

	default:
		name, args := splitScript(step.Script)
		o.log.Info().
			Str("step", step.ID).
			Str("script", step.Script).
			Msg("Running recovery script")

		sctx, cancel := context.WithTimeout(ctx, o.opts.ScriptTimeout)
		_, err := o.runner.Run(sctx, name, args...)
		cancel()

		if err != nil {
			result.Status = StepFailed
			result.Error = err.Error()
		} else {
			result.Status = StepCompleted
		}
	}

	result.Duration = time.Since(stepStart)
	return result
}

// notifyOutcome broadcasts the terminal state to the plan contacts.
func (o *Orchestrator) notifyOutcome(result *ExecutionResult) {
	msg := notify.Message{
		Plan: o.plan.Name,
		Details: map[string]string{
			"duration":       result.Duration.String(),
			"steps_executed": strconv.Itoa(result.StepsExecuted),
		},
	}
	if result.Status == StatusCompleted {
		msg.Event = "dr.completed"
		msg.Severity = notify.SeverityInfo
		msg.Subject = fmt.Sprintf("Disaster recovery completed: %s", o.plan.Name)
		msg.Body = fmt.Sprintf("Recovery plan %s finished %d steps in %s",
			o.plan.Name, result.StepsExecuted, result.Duration)
	} else {
		msg.Event = "dr.failed"
		msg.Severity = notify.SeverityCritical
		msg.Subject = fmt.Sprintf("Disaster recovery FAILED: %s", o.plan.Name)
		msg.Body = result.Error
		if result.FailedStep != "" {
			msg.Details["failed_step"] = result.FailedStep
		}
	}
	o.notifier.Broadcast(o.plan.Contacts, msg)
}

// splitScript breaks a command line into binary and arguments on
// whitespace. Plans needing shell features must wrap them in a script
// file.
func splitScript(script string) (string, []string) {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
