// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the root configuration for the DR service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Docstore DocstoreConfig `koanf:"docstore"`
	Backup   BackupConfig   `koanf:"backup"`
	Restore  RestoreConfig  `koanf:"restore"`
	DR       DRConfig       `koanf:"dr"`     // Optional: disaster-recovery orchestration (requires a plan file)
	Events   EventsConfig   `koanf:"events"` // Optional: lifecycle events over NATS JetStream
	Notify   NotifyConfig   `koanf:"notifications"`
	Auth     AuthConfig     `koanf:"auth"` // Optional: JWT + casbin protection for the ops API
	Audit    AuditConfig    `koanf:"audit"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig holds ops HTTP API settings.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// DocstoreConfig holds connection settings for the document store under
// protection. An empty URI selects the in-memory store (standalone mode,
// useful for development and tests).
type DocstoreConfig struct {
	URI            string        `koanf:"uri"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// ModifiedField is the document field carrying the last-modified
	// timestamp that incremental backups filter on.
	ModifiedField string `koanf:"modified_field"`

	// OpsPerSecond throttles store reads and writes so backup and restore
	// runs do not starve the production request budget. 0 disables
	// throttling.
	OpsPerSecond int `koanf:"ops_per_second"`

	// Databases optionally restricts enumeration to the named databases.
	// System databases (admin, config, local) are always excluded.
	Databases []string `koanf:"databases"`
}

// BackupConfig holds backup execution, storage, and retention settings.
type BackupConfig struct {
	Enabled    bool             `koanf:"enabled"`
	Schedule   ScheduleConfig   `koanf:"schedule"`
	Retention  RetentionConfig  `koanf:"retention"`
	Storage    StorageConfig    `koanf:"storage"`
	Encryption EncryptionConfig `koanf:"encryption"`

	// CatalogPath is the badger directory holding backup metadata.
	// Empty selects the in-memory catalog, which loses history on restart.
	CatalogPath string `koanf:"catalog_path"`
}

// ScheduleConfig holds the three independent timer intervals. These are
// fixed intervals measured from service start, not cron expressions.
type ScheduleConfig struct {
	FullInterval        time.Duration `koanf:"full_interval"`
	IncrementalInterval time.Duration `koanf:"incremental_interval"`
	RetentionInterval   time.Duration `koanf:"retention_interval"`
}

// RetentionConfig holds the retention windows as period counts. Only the
// daily window is enforced against the catalog; weekly and monthly are
// computed and logged for operator visibility.
type RetentionConfig struct {
	Daily   int `koanf:"daily"`
	Weekly  int `koanf:"weekly"`
	Monthly int `koanf:"monthly"`
}

// StorageConfig holds primary artifact storage plus the optional mirror.
type StorageConfig struct {
	// Path is the primary artifact directory on local disk.
	Path   string       `koanf:"path"`
	Mirror MirrorConfig `koanf:"mirror"`
}

// MirrorConfig holds the optional S3-compatible secondary location.
// Writes to the mirror are best effort and never fail a backup.
type MirrorConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"` // Custom endpoint for MinIO and other S3-compatible stores
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PathStyle bool   `koanf:"path_style"`
	Prefix    string `koanf:"prefix"`
}

// EncryptionConfig holds artifact encryption settings. Key is opaque
// secret material from which the AES key is derived; KeyID is recorded in
// backup metadata for operator bookkeeping only.
type EncryptionConfig struct {
	Enabled bool   `koanf:"enabled"`
	Key     string `koanf:"key"`
	KeyID   string `koanf:"key_id"`
}

// RestoreConfig holds restore execution settings.
type RestoreConfig struct {
	// BatchSize is the number of documents written per restore batch.
	BatchSize int `koanf:"batch_size"`
}

// DRConfig holds disaster-recovery orchestration settings.
type DRConfig struct {
	// PlanPath points at the YAML or JSON recovery plan. Empty disables
	// the DR endpoints.
	PlanPath           string        `koanf:"plan_path"`
	ScriptTimeout      time.Duration `koanf:"script_timeout"`
	HealthCheckTimeout time.Duration `koanf:"health_check_timeout"`
}

// EventsConfig holds lifecycle event publishing settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL of an external NATS server. Ignored when Embedded is set.
	URL string `koanf:"url"`

	// Embedded starts an in-process JetStream server (standalone mode).
	Embedded         bool   `koanf:"embedded"`
	EmbeddedPort     int    `koanf:"embedded_port"`
	EmbeddedStoreDir string `koanf:"embedded_store_dir"`

	Stream        string        `koanf:"stream"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// NotifyConfig holds notification channel settings. The log channel is
// always active; a webhook channel is added when WebhookURL is set.
type NotifyConfig struct {
	WebhookURL     string        `koanf:"webhook_url"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
}

// AuthConfig holds ops API authentication settings.
type AuthConfig struct {
	Enabled   bool   `koanf:"enabled"`
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL bounds the lifetime of tokens minted by the vcdr-token
	// helper. Validation always honors the token's own expiry claim.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// Policies are extra casbin policy lines in policy.csv format, for
	// example "p, ci-export, /api/v1/backups, read" or "g, asha, operator".
	// They load on top of the built-in role policies.
	Policies []string `koanf:"policies"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the badger directory for audit events.
	Path          string `koanf:"path"`
	RetentionDays int    `koanf:"retention_days"`
}

// MetricsConfig holds prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// EnsureDirs creates the directories the service writes to. Called once
// at startup after validation.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.Backup.Storage.Path}
	if c.Backup.CatalogPath != "" {
		dirs = append(dirs, c.Backup.CatalogPath)
	}
	if c.Audit.Enabled && c.Audit.Path != "" {
		dirs = append(dirs, c.Audit.Path)
	}
	if c.Events.Enabled && c.Events.Embedded && c.Events.EmbeddedStoreDir != "" {
		dirs = append(dirs, c.Events.EmbeddedStoreDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
