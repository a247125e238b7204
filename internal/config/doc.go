// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

/*
Package config provides centralized configuration management for the
VCarpool DR service.

The package handles loading, validation, and parsing of configuration for
all service components. It ensures consistent configuration across the
backup engine, restore engine, retention manager, scheduler, and the
disaster-recovery orchestrator, and provides sensible defaults for every
optional setting.

# Configuration Sources

Configuration is loaded through koanf v2 with layered sources:

 1. Built-in defaults (always applied)
 2. Optional YAML config file (vcarpool-dr.yaml, or VCDR_CONFIG path)
 3. Environment variables (highest priority)

Precedence is ENV > file > defaults.

# Environment Variables

All service environment variables carry the VCDR_ prefix so they never
collide with the main application's variables. Variables are mapped to
config paths through an explicit table; unknown variables are ignored.

HTTP server (ServerConfig):
  - VCDR_HTTP_HOST: Bind address (default: 0.0.0.0)
  - VCDR_HTTP_PORT: Listen port (default: 8443)
  - VCDR_HTTP_READ_TIMEOUT: Request read timeout (default: 15s)
  - VCDR_HTTP_WRITE_TIMEOUT: Response write timeout (default: 30s)
  - VCDR_CORS_ORIGINS: Comma-separated allowed origins
  - VCDR_RATE_LIMIT_PER_MINUTE: Per-IP request budget (default: 120)

Document store (DocstoreConfig):
  - VCDR_DOCSTORE_URI: mongodb:// or mongodb+srv:// URI (empty = in-memory)
  - VCDR_DOCSTORE_MODIFIED_FIELD: Incremental filter field (default: updatedAt)
  - VCDR_DOCSTORE_OPS_PER_SECOND: Throttle for store calls (default: 0 = off)
  - VCDR_DOCSTORE_DATABASES: Comma-separated database allowlist

Backups (BackupConfig):
  - VCDR_BACKUP_ENABLED: Enable scheduled backups (default: true)
  - VCDR_BACKUP_FULL_INTERVAL: Full backup interval (default: 24h)
  - VCDR_BACKUP_INCREMENTAL_INTERVAL: Incremental interval (default: 4h)
  - VCDR_BACKUP_RETENTION_INTERVAL: Retention sweep interval (default: 24h)
  - VCDR_RETENTION_DAILY: Enforced daily window in days (default: 7)
  - VCDR_RETENTION_WEEKLY: Advisory weekly window (default: 4)
  - VCDR_RETENTION_MONTHLY: Advisory monthly window (default: 6)
  - VCDR_BACKUP_PATH: Primary artifact directory (default: /data/backups)
  - VCDR_CATALOG_PATH: Badger catalog directory (default: /data/catalog)
  - VCDR_ENCRYPTION_ENABLED: Encrypt artifacts at rest (default: false)
  - VCDR_ENCRYPTION_KEY: Key material, min 16 chars (required if enabled)
  - VCDR_MIRROR_ENABLED: Mirror artifacts to S3 (default: false)
  - VCDR_MIRROR_BUCKET / VCDR_MIRROR_REGION / VCDR_MIRROR_ENDPOINT

Restore (RestoreConfig):
  - VCDR_RESTORE_BATCH_SIZE: Documents per write batch (default: 100)

Disaster recovery (DRConfig):
  - VCDR_DR_PLAN_PATH: Recovery plan file (empty = DR disabled)
  - VCDR_DR_SCRIPT_TIMEOUT: Per-step script timeout (default: 10m)
  - VCDR_DR_HEALTH_CHECK_TIMEOUT: Post-recovery check timeout (default: 30s)

Events (EventsConfig):
  - VCDR_EVENTS_ENABLED: Publish lifecycle events to NATS (default: false)
  - VCDR_NATS_URL: External NATS server URL
  - VCDR_NATS_EMBEDDED: Run an in-process JetStream server (default: false)
  - VCDR_NATS_STREAM / VCDR_NATS_SUBJECT_PREFIX

Ops API auth (AuthConfig):
  - VCDR_AUTH_ENABLED: Require JWT on state-changing routes (default: false)
  - VCDR_JWT_SECRET: HS256 secret, min 32 chars (required if enabled)
  - VCDR_AUTH_TOKEN_TTL: Lifetime of tokens minted by vcdr-token (default: 24h)
  - VCDR_AUTH_POLICIES: Comma-separated casbin policy lines

# Usage Example

	import "github.com/vedprakash-m/vcarpool-dr/internal/config"

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Backups every %s to %s\n",
	    cfg.Backup.Schedule.FullInterval, cfg.Backup.Storage.Path)

# Validation

LoadWithKoanf validates the merged configuration before returning it.
Error messages reference the VCDR_* variable names so a failed deployment
can be fixed without reading source. Conditional requirements only apply
when the owning feature is enabled: VCDR_ENCRYPTION_KEY is only required
when VCDR_ENCRYPTION_ENABLED=true, and so on.

# Thread Safety

The Config struct is immutable after LoadWithKoanf returns, making it safe
for concurrent reads from multiple goroutines without synchronization.
*/
package config
