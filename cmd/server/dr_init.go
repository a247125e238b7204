// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package main

import (
	"fmt"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/command"
	"github.com/vedprakash-m/vcarpool-dr/internal/config"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/dr"
	"github.com/vedprakash-m/vcarpool-dr/internal/events"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/notify"
)

// initDR loads the recovery plan and builds the orchestrator around it.
// An empty plan path leaves the DR endpoints answering 503.
func initDR(cfg *config.Config, store docstore.Client, artifacts artifact.Store, notifier *notify.Notifier) (*dr.Orchestrator, error) {
	if cfg.DR.PlanPath == "" {
		logging.Info().Msg("Disaster recovery disabled (no plan configured)")
		return nil, nil
	}

	plan, err := dr.LoadPlan(cfg.DR.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("loading recovery plan %q: %w", cfg.DR.PlanPath, err)
	}

	orchestrator := dr.NewOrchestrator(plan, notifier, command.NewExecRunner(),
		dr.NewSystemHealthCheck(store, artifacts), dr.Options{
			ScriptTimeout:      cfg.DR.ScriptTimeout,
			HealthCheckTimeout: cfg.DR.HealthCheckTimeout,
		})

	logging.Info().
		Str("plan", plan.Name).
		Int("steps", len(plan.Steps)).
		Dur("rto", plan.RTO.Std()).
		Msg("Disaster recovery plan loaded")

	return orchestrator, nil
}

// drExecutedHook adapts an execution result into a dr.executed event.
// Auditing happens in the API handler where the request identity is known.
func drExecutedHook(announcer *events.Announcer) func(*dr.ExecutionResult) {
	return func(res *dr.ExecutionResult) {
		announcer.DRExecuted(events.DREvent{
			Plan:          res.Plan,
			Status:        res.Status,
			StepsExecuted: res.StepsExecuted,
			StepsTotal:    res.StepsTotal,
			DurationMS:    res.Duration.Milliseconds(),
			RTOExceeded:   res.RTOExceeded,
			Error:         res.Error,
		})
	}
}
