// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"vcarpool-dr.yaml",
	"vcarpool-dr.yml",
	"/etc/vcarpool-dr/config.yaml",
	"/etc/vcarpool-dr/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the
// config file path.
const ConfigPathEnvVar = "VCDR_CONFIG"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and
// environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8443,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			CORSOrigins:        []string{},
			RateLimitPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Docstore: DocstoreConfig{
			URI:            "", // Empty = in-memory store (standalone mode)
			ConnectTimeout: 10 * time.Second,
			ModifiedField:  "updatedAt",
			OpsPerSecond:   0, // Unthrottled
			Databases:      []string{},
		},
		Backup: BackupConfig{
			Enabled: true,
			Schedule: ScheduleConfig{
				FullInterval:        24 * time.Hour,
				IncrementalInterval: 4 * time.Hour,
				RetentionInterval:   24 * time.Hour,
			},
			Retention: RetentionConfig{
				Daily:   7,
				Weekly:  4,
				Monthly: 6,
			},
			Storage: StorageConfig{
				Path: "/data/backups",
				Mirror: MirrorConfig{
					Enabled:   false,
					PathStyle: false,
				},
			},
			Encryption: EncryptionConfig{
				Enabled: false,
			},
			CatalogPath: "/data/catalog",
		},
		Restore: RestoreConfig{
			BatchSize: 100,
		},
		DR: DRConfig{
			PlanPath:           "", // Empty = DR endpoints disabled
			ScriptTimeout:      10 * time.Minute,
			HealthCheckTimeout: 30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			Embedded:         false,
			EmbeddedPort:     4222,
			EmbeddedStoreDir: "/data/nats/jetstream",
			Stream:           "VCARPOOL_DR",
			SubjectPrefix:    "vcarpool.dr",
			MaxReconnects:    -1, // Retry forever
			ReconnectWait:    2 * time.Second,
		},
		Notify: NotifyConfig{
			WebhookURL:     "",
			WebhookTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:   false,
			JWTSecret: "",
			TokenTTL:  24 * time.Hour,
			Policies:  []string{},
		},
		Audit: AuditConfig{
			Enabled:       true,
			Path:          "/data/audit",
			RetentionDays: 90,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. Nested settings map through the
// koanf struct tags, and VCDR_* environment variables map through an
// explicit table in envTransformFunc.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when set via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"docstore.databases",
	"auth.policies",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file or defaults), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config
// paths through an explicit table. Unknown variables map to the empty
// string and are skipped, which prevents unrelated environment variables
// from polluting the config.
//
// Examples:
//   - VCDR_HTTP_PORT -> server.port
//   - VCDR_BACKUP_FULL_INTERVAL -> backup.schedule.full_interval
//   - VCDR_DOCSTORE_URI -> docstore.uri
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"vcdr_http_host":             "server.host",
		"vcdr_http_port":             "server.port",
		"vcdr_http_read_timeout":     "server.read_timeout",
		"vcdr_http_write_timeout":    "server.write_timeout",
		"vcdr_http_shutdown_timeout": "server.shutdown_timeout",
		"vcdr_cors_origins":          "server.cors_origins",
		"vcdr_rate_limit_per_minute": "server.rate_limit_per_minute",

		// Logging mappings
		"vcdr_log_level":  "logging.level",
		"vcdr_log_format": "logging.format",
		"vcdr_log_caller": "logging.caller",

		// Docstore mappings
		"vcdr_docstore_uri":             "docstore.uri",
		"vcdr_docstore_connect_timeout": "docstore.connect_timeout",
		"vcdr_docstore_modified_field":  "docstore.modified_field",
		"vcdr_docstore_ops_per_second":  "docstore.ops_per_second",
		"vcdr_docstore_databases":       "docstore.databases",

		// Backup mappings
		"vcdr_backup_enabled":              "backup.enabled",
		"vcdr_backup_full_interval":        "backup.schedule.full_interval",
		"vcdr_backup_incremental_interval": "backup.schedule.incremental_interval",
		"vcdr_backup_retention_interval":   "backup.schedule.retention_interval",
		"vcdr_retention_daily":             "backup.retention.daily",
		"vcdr_retention_weekly":            "backup.retention.weekly",
		"vcdr_retention_monthly":           "backup.retention.monthly",
		"vcdr_backup_path":                 "backup.storage.path",
		"vcdr_catalog_path":                "backup.catalog_path",

		// Mirror mappings
		"vcdr_mirror_enabled":    "backup.storage.mirror.enabled",
		"vcdr_mirror_bucket":     "backup.storage.mirror.bucket",
		"vcdr_mirror_region":     "backup.storage.mirror.region",
		"vcdr_mirror_endpoint":   "backup.storage.mirror.endpoint",
		"vcdr_mirror_access_key": "backup.storage.mirror.access_key",
		"vcdr_mirror_secret_key": "backup.storage.mirror.secret_key",
		"vcdr_mirror_path_style": "backup.storage.mirror.path_style",
		"vcdr_mirror_prefix":     "backup.storage.mirror.prefix",

		// Encryption mappings
		"vcdr_encryption_enabled": "backup.encryption.enabled",
		"vcdr_encryption_key":     "backup.encryption.key",
		"vcdr_encryption_key_id":  "backup.encryption.key_id",

		// Restore mappings
		"vcdr_restore_batch_size": "restore.batch_size",

		// DR mappings
		"vcdr_dr_plan_path":            "dr.plan_path",
		"vcdr_dr_script_timeout":       "dr.script_timeout",
		"vcdr_dr_health_check_timeout": "dr.health_check_timeout",

		// Events mappings
		"vcdr_events_enabled":      "events.enabled",
		"vcdr_nats_url":            "events.url",
		"vcdr_nats_embedded":       "events.embedded",
		"vcdr_nats_embedded_port":  "events.embedded_port",
		"vcdr_nats_store_dir":      "events.embedded_store_dir",
		"vcdr_nats_stream":         "events.stream",
		"vcdr_nats_subject_prefix": "events.subject_prefix",
		"vcdr_nats_max_reconnects": "events.max_reconnects",
		"vcdr_nats_reconnect_wait": "events.reconnect_wait",

		// Notification mappings
		"vcdr_webhook_url":     "notifications.webhook_url",
		"vcdr_webhook_timeout": "notifications.webhook_timeout",

		// Auth mappings
		"vcdr_auth_enabled":   "auth.enabled",
		"vcdr_jwt_secret":     "auth.jwt_secret",
		"vcdr_auth_token_ttl": "auth.token_ttl",
		"vcdr_auth_policies":  "auth.policies",

		// Audit mappings
		"vcdr_audit_enabled":        "audit.enabled",
		"vcdr_audit_path":           "audit.path",
		"vcdr_audit_retention_days": "audit.retention_days",

		// Metrics mappings
		"vcdr_metrics_enabled": "metrics.enabled",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
