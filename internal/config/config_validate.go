// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package config

import (
	"fmt"
	"time"
)

// Validate checks all configuration values and returns the first problem
// found. Error messages reference the environment variable names so
// operators can fix the deployment without reading source.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateDocstore(); err != nil {
		return err
	}

	if err := c.validateBackup(); err != nil {
		return err
	}

	if err := c.validateRestore(); err != nil {
		return err
	}

	if err := c.validateDR(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateNotify(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return c.validateAudit()
}

// validateServer validates ops HTTP API settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("VCDR_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("VCDR_RATE_LIMIT_PER_MINUTE must be at least 1, got %d", c.Server.RateLimitPerMinute)
	}
	return nil
}

// validateLogging validates logger settings
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("VCDR_LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("VCDR_LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateDocstore validates document store connection settings.
// The URI is optional: standalone mode runs against the in-memory store.
func (c *Config) validateDocstore() error {
	if c.Docstore.URI != "" {
		if err := validateDocstoreURI(c.Docstore.URI); err != nil {
			return fmt.Errorf("VCDR_DOCSTORE_URI is invalid: %w", err)
		}
	}
	if c.Docstore.ModifiedField == "" {
		return fmt.Errorf("VCDR_DOCSTORE_MODIFIED_FIELD must not be empty")
	}
	if c.Docstore.OpsPerSecond < 0 {
		return fmt.Errorf("VCDR_DOCSTORE_OPS_PER_SECOND must be 0 or positive, got %d", c.Docstore.OpsPerSecond)
	}
	return nil
}

// validateBackup validates backup settings (only if enabled)
func (c *Config) validateBackup() error {
	if !c.Backup.Enabled {
		return nil
	}

	if c.Backup.Storage.Path == "" {
		return fmt.Errorf("VCDR_BACKUP_PATH is required when VCDR_BACKUP_ENABLED=true")
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateEncryption(); err != nil {
		return err
	}
	return c.validateMirror()
}

// Schedule limit constants
const (
	minScheduleInterval = time.Minute
	maxScheduleInterval = 30 * 24 * time.Hour
)

// validateSchedule validates the three timer intervals
func (c *Config) validateSchedule() error {
	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"VCDR_BACKUP_FULL_INTERVAL", c.Backup.Schedule.FullInterval},
		{"VCDR_BACKUP_INCREMENTAL_INTERVAL", c.Backup.Schedule.IncrementalInterval},
		{"VCDR_BACKUP_RETENTION_INTERVAL", c.Backup.Schedule.RetentionInterval},
	}

	for _, iv := range intervals {
		if iv.value < minScheduleInterval || iv.value > maxScheduleInterval {
			return fmt.Errorf("%s must be between 1m and 720h, got %s", iv.name, iv.value)
		}
	}
	return nil
}

// validateRetention validates the retention window counts
func (c *Config) validateRetention() error {
	if c.Backup.Retention.Daily < 1 {
		return fmt.Errorf("VCDR_RETENTION_DAILY must be at least 1, got %d", c.Backup.Retention.Daily)
	}
	if c.Backup.Retention.Weekly < 0 {
		return fmt.Errorf("VCDR_RETENTION_WEEKLY must be 0 or positive, got %d", c.Backup.Retention.Weekly)
	}
	if c.Backup.Retention.Monthly < 0 {
		return fmt.Errorf("VCDR_RETENTION_MONTHLY must be 0 or positive, got %d", c.Backup.Retention.Monthly)
	}
	return nil
}

// minEncryptionKeyLen is the minimum length of the raw key material.
// The AES key is derived via HKDF, so this bounds entropy, not key size.
const minEncryptionKeyLen = 16

// validateEncryption validates artifact encryption settings (only if enabled)
func (c *Config) validateEncryption() error {
	if !c.Backup.Encryption.Enabled {
		return nil
	}
	if len(c.Backup.Encryption.Key) < minEncryptionKeyLen {
		return fmt.Errorf("VCDR_ENCRYPTION_KEY must be at least %d characters when VCDR_ENCRYPTION_ENABLED=true", minEncryptionKeyLen)
	}
	return nil
}

// validateMirror validates mirror storage settings (only if enabled)
func (c *Config) validateMirror() error {
	m := c.Backup.Storage.Mirror
	if !m.Enabled {
		return nil
	}

	if m.Bucket == "" {
		return fmt.Errorf("VCDR_MIRROR_BUCKET is required when VCDR_MIRROR_ENABLED=true")
	}
	if m.Region == "" && m.Endpoint == "" {
		return fmt.Errorf("VCDR_MIRROR_REGION or VCDR_MIRROR_ENDPOINT is required when VCDR_MIRROR_ENABLED=true")
	}
	if m.Endpoint != "" {
		if err := validateHTTPURL(m.Endpoint, "VCDR_MIRROR_ENDPOINT"); err != nil {
			return fmt.Errorf("VCDR_MIRROR_ENDPOINT is invalid: %w", err)
		}
	}
	return nil
}

// Restore limit constants
const (
	minRestoreBatchSize = 1
	maxRestoreBatchSize = 10000
)

// validateRestore validates restore settings
func (c *Config) validateRestore() error {
	if c.Restore.BatchSize < minRestoreBatchSize || c.Restore.BatchSize > maxRestoreBatchSize {
		return fmt.Errorf("VCDR_RESTORE_BATCH_SIZE must be between 1 and 10000, got %d", c.Restore.BatchSize)
	}
	return nil
}

// validateDR validates disaster-recovery settings (only if a plan is configured)
func (c *Config) validateDR() error {
	if c.DR.PlanPath == "" {
		return nil
	}

	if c.DR.ScriptTimeout < time.Second {
		return fmt.Errorf("VCDR_DR_SCRIPT_TIMEOUT must be at least 1s, got %s", c.DR.ScriptTimeout)
	}
	if c.DR.HealthCheckTimeout < time.Second {
		return fmt.Errorf("VCDR_DR_HEALTH_CHECK_TIMEOUT must be at least 1s, got %s", c.DR.HealthCheckTimeout)
	}
	return nil
}

// validateEvents validates NATS settings (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}

	if c.Events.Embedded {
		if c.Events.EmbeddedPort < 1 || c.Events.EmbeddedPort > 65535 {
			return fmt.Errorf("VCDR_NATS_EMBEDDED_PORT must be between 1 and 65535, got %d", c.Events.EmbeddedPort)
		}
	} else {
		if c.Events.URL == "" {
			return fmt.Errorf("VCDR_NATS_URL is required when VCDR_EVENTS_ENABLED=true and VCDR_NATS_EMBEDDED=false")
		}
		if err := validateNATSURL(c.Events.URL); err != nil {
			return fmt.Errorf("VCDR_NATS_URL is invalid: %w", err)
		}
	}

	if c.Events.Stream == "" {
		return fmt.Errorf("VCDR_NATS_STREAM must not be empty when VCDR_EVENTS_ENABLED=true")
	}
	if c.Events.SubjectPrefix == "" {
		return fmt.Errorf("VCDR_NATS_SUBJECT_PREFIX must not be empty when VCDR_EVENTS_ENABLED=true")
	}
	return nil
}

// validateNotify validates notification settings
func (c *Config) validateNotify() error {
	if c.Notify.WebhookURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Notify.WebhookURL, "VCDR_WEBHOOK_URL"); err != nil {
		return fmt.Errorf("VCDR_WEBHOOK_URL is invalid: %w", err)
	}
	if c.Notify.WebhookTimeout < time.Second {
		return fmt.Errorf("VCDR_WEBHOOK_TIMEOUT must be at least 1s, got %s", c.Notify.WebhookTimeout)
	}
	return nil
}

// minJWTSecretLen matches the common HS256 guidance of 256 bits of secret.
const minJWTSecretLen = 32

// validateAuth validates ops API auth settings (only if enabled)
func (c *Config) validateAuth() error {
	if !c.Auth.Enabled {
		return nil
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("VCDR_JWT_SECRET must be at least %d characters when VCDR_AUTH_ENABLED=true", minJWTSecretLen)
	}
	return nil
}

// validateAudit validates audit trail settings (only if enabled)
func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.Path == "" {
		return fmt.Errorf("VCDR_AUDIT_PATH is required when VCDR_AUDIT_ENABLED=true")
	}
	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("VCDR_AUDIT_RETENTION_DAYS must be at least 1, got %d", c.Audit.RetentionDays)
	}
	return nil
}
