// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package dr

import (
	"context"
	"fmt"

	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
)

// healthProbeKey is only ever probed for existence, never written.
const healthProbeKey = ".healthcheck"

// SystemHealthCheck verifies the document store answers pings and the
// artifact store answers lookups. It is the default post-recovery
// verification hook.
type SystemHealthCheck struct {
	store     docstore.Client
	artifacts artifact.Store
}

// NewSystemHealthCheck builds the default health check. artifacts may be
// nil when only the document store matters.
func NewSystemHealthCheck(store docstore.Client, artifacts artifact.Store) *SystemHealthCheck {
	return &SystemHealthCheck{store: store, artifacts: artifacts}
}

// CheckHealth implements HealthChecker.
func (c *SystemHealthCheck) CheckHealth(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	if c.artifacts != nil {
		if _, err := c.artifacts.Exists(ctx, healthProbeKey); err != nil {
			return fmt.Errorf("artifact store: %w", err)
		}
	}
	log := logging.Component("dr")
	log.Debug().Msg("Health check probes passed")
	return nil
}
