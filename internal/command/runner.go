// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package command runs external recovery scripts on behalf of the
// disaster recovery orchestrator.
package command

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// maxLoggedOutput caps how much combined output lands in a log line.
const maxLoggedOutput = 2048

// Runner executes an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec, honoring context cancellation.
type ExecRunner struct {
	log zerolog.Logger
}

// NewExecRunner returns a runner backed by the host shell environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{log: logging.Component("command")}
}

// Run executes name with args and returns the combined stdout and stderr.
// The process is killed when ctx is canceled.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		r.log.Error().
			Err(err).
			Str("command", name).
			Strs("args", args).
			Dur("duration", duration).
			Str("output", truncateOutput(output)).
			Msg("Command failed")
		return output, fmt.Errorf("running %s: %w", name, err)
	}

	r.log.Info().
		Str("command", name).
		Strs("args", args).
		Dur("duration", duration).
		Int("output_bytes", len(output)).
		Msg("Command completed")
	return output, nil
}

func truncateOutput(output []byte) string {
	if len(output) > maxLoggedOutput {
		return string(output[:maxLoggedOutput]) + "...(truncated)"
	}
	return string(output)
}
