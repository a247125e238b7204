// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package main is the entry point for the VCarpool DR server.
//
// VCarpool DR protects the carpool platform's MongoDB data with scheduled
// full and incremental backups, checksum-verified restores, retention
// sweeps, and an executable disaster recovery plan. Operators drive it
// through a small REST API; everything else runs on fixed-interval timers
// under a supervision tree.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Document store: Connect to MongoDB (or the in-memory store in standalone mode)
//  3. Artifact storage: Local directory, optional S3 mirror, optional AES-GCM encryption
//  4. Catalog and audit: BadgerDB-backed backup ledger and audit trail
//  5. Events (optional): Lifecycle events over NATS JetStream, embedded or external
//  6. Notifications: Log channel, optional webhook, optional events channel
//  7. Disaster recovery: Plan file, command runner, post-recovery health check
//  8. Authentication: JWT bearer tokens with casbin authorization, or none
//  9. HTTP server: Ops REST API under /api/v1 plus /metrics
//
// Every long-running part (HTTP server, scheduler timers, badger GC, audit
// cleanup, embedded NATS watchdog) is registered in a suture supervision
// tree and restarted on failure with exponential backoff.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (VCDR_* keys)
//   - Config file (vcarpool-dr.yaml, or VCDR_CONFIG)
//   - Built-in defaults
//
// # Standalone Mode
//
// With no document store URI configured the server runs against an
// in-memory store. Backups still exercise the full pipeline (manifests,
// checksums, catalog, retention), which is useful for development and for
// rehearsing recovery plans without touching production data.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Flushes pending notifications and lifecycle events
//   - Closes the catalog, audit trail, and document store connections
//
// # Example Usage
//
// Development against a local MongoDB, no auth:
//
//	export VCDR_DOCSTORE_URI=mongodb://localhost:27017
//	export VCDR_BACKUP_PATH=/tmp/vcdr/backups
//	export VCDR_CATALOG_PATH=/tmp/vcdr/catalog
//	./vcarpool-dr
//
// Production with JWT auth and an S3 mirror:
//
//	export VCDR_DOCSTORE_URI=mongodb://mongo:27017
//	export VCDR_AUTH_ENABLED=true
//	export VCDR_JWT_SECRET=$(openssl rand -base64 32)
//	export VCDR_MIRROR_ENABLED=true
//	export VCDR_MIRROR_BUCKET=vcarpool-dr
//	export VCDR_MIRROR_REGION=us-west-2
//	./vcarpool-dr
//
// Recovery plan execution is enabled by pointing VCDR_DR_PLAN_PATH at a
// YAML or JSON plan file; the DR endpoints answer 503 without one.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vedprakash-m/vcarpool-dr/internal/api"
	"github.com/vedprakash-m/vcarpool-dr/internal/artifact"
	"github.com/vedprakash-m/vcarpool-dr/internal/audit"
	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/authz"
	"github.com/vedprakash-m/vcarpool-dr/internal/backup"
	"github.com/vedprakash-m/vcarpool-dr/internal/config"
	"github.com/vedprakash-m/vcarpool-dr/internal/docstore"
	"github.com/vedprakash-m/vcarpool-dr/internal/logging"
	"github.com/vedprakash-m/vcarpool-dr/internal/notify"
	"github.com/vedprakash-m/vcarpool-dr/internal/supervisor"
	"github.com/vedprakash-m/vcarpool-dr/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", backup.AppVersion).Msg("Starting VCarpool DR")

	if cfg.Docstore.URI != "" {
		logging.Info().
			Str("storage_path", cfg.Backup.Storage.Path).
			Bool("auth_enabled", cfg.Auth.Enabled).
			Msg("Configuration loaded")
	} else {
		logging.Info().
			Bool("docstore_configured", false).
			Str("storage_path", cfg.Backup.Storage.Path).
			Bool("auth_enabled", cfg.Auth.Enabled).
			Msg("Configuration loaded (standalone mode, in-memory store)")
	}

	if err := cfg.EnsureDirs(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create data directories")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store under protection. An empty URI selects the in-memory
	// store so development and plan rehearsals need no MongoDB.
	var store docstore.Client
	if cfg.Docstore.URI != "" {
		mongoStore, err := docstore.NewMongo(ctx, cfg.Docstore)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to document store")
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				logging.Error().Err(err).Msg("Error closing document store")
			}
		}()
		if err := mongoStore.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("Document store not answering pings yet (will retry)")
		} else {
			logging.Info().Msg("Connected to document store")
		}
		store = mongoStore
	} else {
		logging.Warn().Msg("No document store URI configured - using in-memory store")
		store = docstore.NewMemoryStore(cfg.Docstore.ModifiedField)
	}

	// Artifact storage: local primary, optional S3 mirror, optional
	// encryption. The wrappers compose around the same Store interface.
	artifacts, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifact storage")
	}

	// Backup catalog. The badger handle stays in main so the GC service
	// can be registered against it.
	var catalogStore backup.CatalogStore
	var catalogDB *badger.DB
	if cfg.Backup.CatalogPath != "" {
		opts := badger.DefaultOptions(cfg.Backup.CatalogPath)
		opts.Logger = nil
		catalogDB, err = badger.Open(opts)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Backup.CatalogPath).Msg("Failed to open backup catalog")
		}
		defer func() {
			if err := catalogDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing catalog database")
			}
		}()
		catalogStore = backup.NewBadgerCatalogStoreFromDB(catalogDB)
		logging.Info().Str("path", cfg.Backup.CatalogPath).Msg("Backup catalog opened")
	} else {
		logging.Warn().Msg("No catalog path configured - backup history will not survive restarts")
		catalogStore = backup.NewMemoryCatalogStore()
	}

	// Backup service facade: engine, restorer, retention manager and
	// catalog behind run guards.
	svc := backup.NewService(store, artifacts, catalogStore, backup.Options{
		Encrypted:        cfg.Backup.Encryption.Enabled,
		EncryptionKeyID:  cfg.Backup.Encryption.KeyID,
		RestoreBatchSize: cfg.Restore.BatchSize,
		Retention: backup.RetentionWindows{
			Daily:   cfg.Backup.Retention.Daily,
			Weekly:  cfg.Backup.Retention.Weekly,
			Monthly: cfg.Backup.Retention.Monthly,
		},
	})

	// === AUDIT TRAIL ===
	var auditLogger *audit.Logger
	var auditDB *badger.DB
	var auditStore audit.Store
	if cfg.Audit.Enabled {
		if cfg.Audit.Path != "" {
			opts := badger.DefaultOptions(cfg.Audit.Path)
			opts.Logger = nil
			auditDB, err = badger.Open(opts)
			if err != nil {
				logging.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("Failed to open audit store")
			}
			defer func() {
				if err := auditDB.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing audit database")
				}
			}()
			auditStore = audit.NewBadgerStoreFromDB(auditDB)
		} else {
			logging.Warn().Msg("No audit path configured - audit trail is in-memory only")
			auditStore = audit.NewMemoryStore(0)
		}

		auditConfig := audit.DefaultConfig()
		if cfg.Audit.RetentionDays > 0 {
			auditConfig.RetentionDays = cfg.Audit.RetentionDays
		}
		auditLogger = audit.NewLogger(auditStore, auditConfig)
		defer func() {
			if err := auditLogger.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit logger")
			}
		}()
		logging.Info().Int("retention_days", auditConfig.RetentionDays).Msg("Audit trail initialized")
	} else {
		logging.Info().Msg("Audit trail disabled (VCDR_AUDIT_ENABLED=false)")
	}

	// === LIFECYCLE EVENTS (optional) ===
	eventsComponents, err := initEvents(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize lifecycle events")
	}
	defer eventsComponents.Shutdown(context.Background())

	// === NOTIFICATIONS ===
	// The log channel is always registered; webhook and events channels
	// join when configured. The typed-nil guard matters: a nil *Publisher
	// stored in the interface would pass BuildRegistry's nil check.
	var eventsPub notify.Publisher
	if pub := eventsComponents.Publisher(); pub != nil {
		eventsPub = pub
	}
	registry, err := notify.BuildRegistry(cfg.Notify.WebhookURL, cfg.Notify.WebhookTimeout, eventsPub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build notification registry")
	}
	notifier := notify.NewNotifier(registry, 0)
	defer notifier.Wait()

	// === DISASTER RECOVERY (optional) ===
	orchestrator, err := initDR(cfg, store, artifacts, notifier)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load disaster recovery plan")
	}

	// === COMPLETION HOOKS ===
	// Backups, restores, and DR executions announce themselves on the
	// events stream. Backup runs also land in the audit trail here with a
	// trigger-derived actor; operator-initiated restores, deletions, and
	// DR runs are audited in the API handlers where the request identity
	// is available.
	announcer := eventsComponents.Announcer()
	svc.SetOnBackupFinished(func(md *backup.Metadata) {
		if announcer != nil {
			announcer.BackupFinished(md)
		}
		if auditLogger != nil {
			actor := audit.SystemActor()
			if md.Trigger == backup.TriggerManual {
				actor = audit.Actor{ID: "operator", Type: "user"}
			}
			auditLogger.LogBackupRun(context.Background(), actor,
				md.ID, string(md.Type), string(md.Status), md.SizeBytes, md.DocumentCount)
		}
	})
	if announcer != nil {
		svc.SetOnRestoreFinished(announcer.RestoreFinished)
	}
	if orchestrator != nil && announcer != nil {
		orchestrator.SetOnExecuted(drExecutedHook(announcer))
	}

	// === AUTHENTICATION ===
	authMiddleware, err := initAuth(cfg, auditLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	// === HTTP API ===
	// The nil guard matters: assigning a nil *dr.Orchestrator directly
	// would produce a non-nil interface holding a nil pointer, and the DR
	// endpoints would panic instead of answering 503.
	var recovery api.RecoveryOrchestrator
	if orchestrator != nil {
		recovery = orchestrator
	}
	handler := api.NewHandler(svc, recovery, auditLogger)
	chiMw := api.NewChiMiddlewareFromServer(cfg.Server.CORSOrigins, cfg.Server.RateLimitPerMinute)
	router := api.NewRouter(handler, authMiddleware, chiMw)
	router.ConfigureMetrics(cfg.Metrics.Enabled)

	if auditLogger != nil && auditStore != nil {
		router.ConfigureAudit(api.NewAuditHandlers(auditStore))
	}

	if cfg.Auth.Enabled {
		authzMw, err := initAuthz(ctx, cfg, auditLogger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize authorization")
		}
		router.ConfigureAuthz(authzMw)
		logging.Info().Msg("Casbin authorization enabled")
	} else {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (VCDR_AUTH_ENABLED=false)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All ops endpoints, including restore and plan execution,")
		logging.Warn().Msg("  are publicly accessible. This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER run unauthenticated on networks you do not control!")
		logging.Warn().Msg("============================================================")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISION TREE ===
	// zerolog bridges to slog for suture's event hook.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if catalogDB != nil {
		tree.AddDataService(services.NewBadgerGCService("catalog", catalogDB, 0))
	}
	if auditDB != nil {
		tree.AddDataService(services.NewBadgerGCService("audit", auditDB, 0))
	}
	if auditLogger != nil {
		tree.AddDataService(services.NewAuditCleanupService(auditLogger, auditLogger.CleanupInterval()))
	}

	if embedded := eventsComponents.Server(); embedded != nil {
		tree.AddEventsService(services.NewEventsServerService(embedded, 10*time.Second))
		logging.Info().Msg("Embedded events server added to supervisor tree")
	}

	if cfg.Backup.Enabled {
		scheduler := backup.NewScheduler(svc, backup.ScheduleIntervals{
			Full:        cfg.Backup.Schedule.FullInterval,
			Incremental: cfg.Backup.Schedule.IncrementalInterval,
			Retention:   cfg.Backup.Schedule.RetentionInterval,
		})
		for _, timer := range scheduler.Services() {
			tree.AddSchedulerService(timer)
		}
		logging.Info().
			Dur("full_interval", cfg.Backup.Schedule.FullInterval).
			Dur("incremental_interval", cfg.Backup.Schedule.IncrementalInterval).
			Dur("retention_interval", cfg.Backup.Schedule.RetentionInterval).
			Msg("Backup scheduler timers added to supervisor tree")
	} else {
		logging.Info().Msg("Scheduled backups disabled (VCDR_BACKUP_ENABLED=false)")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildArtifactStore composes the configured artifact storage stack:
// local primary, then the S3 mirror wrapper, then the encryption wrapper.
// Order matters: the mirror sees ciphertext when encryption is enabled.
func buildArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	local, err := artifact.NewLocalStore(cfg.Backup.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("local artifact store: %w", err)
	}
	var store artifact.Store = local
	logging.Info().Str("path", cfg.Backup.Storage.Path).Msg("Local artifact store ready")

	if cfg.Backup.Storage.Mirror.Enabled {
		s3Store, err := artifact.NewS3Store(ctx, cfg.Backup.Storage.Mirror)
		if err != nil {
			return nil, fmt.Errorf("s3 mirror store: %w", err)
		}
		store = artifact.NewMirroredStore(store, s3Store)
		logging.Info().
			Str("bucket", cfg.Backup.Storage.Mirror.Bucket).
			Str("region", cfg.Backup.Storage.Mirror.Region).
			Msg("S3 mirror enabled (best effort)")
	}

	if cfg.Backup.Encryption.Enabled {
		enc, err := artifact.NewEncryptor(cfg.Backup.Encryption.Key, cfg.Backup.Encryption.KeyID)
		if err != nil {
			return nil, fmt.Errorf("artifact encryptor: %w", err)
		}
		store = artifact.NewEncryptedStore(store, enc)
		logging.Info().Str("key_id", cfg.Backup.Encryption.KeyID).Msg("Artifact encryption enabled")
	}

	return store, nil
}

// initAuth builds the authentication middleware. With auth disabled the
// middleware passes every request through unauthenticated. The server
// never mints tokens; operators use vcdr-token for that.
func initAuth(cfg *config.Config, auditLogger *audit.Logger) (*auth.Middleware, error) {
	if !cfg.Auth.Enabled {
		return auth.NewMiddleware(&auth.MiddlewareConfig{Mode: auth.AuthModeNone})
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("jwt manager: %w", err)
	}

	mw, err := auth.NewMiddleware(&auth.MiddlewareConfig{
		Mode:       auth.AuthModeJWT,
		JWTManager: jwtManager,
		Audit:      auditLogger,
	})
	if err != nil {
		return nil, err
	}
	logging.Info().Dur("token_ttl", cfg.Auth.TokenTTL).Msg("JWT authentication enabled")
	return mw, nil
}

// initAuthz builds the Casbin enforcer and its middleware. Policies from
// the config file are layered on top of the built-in role model.
func initAuthz(ctx context.Context, cfg *config.Config, auditLogger *audit.Logger) (*authz.Middleware, error) {
	enforcerConfig := authz.DefaultEnforcerConfig()
	enforcerConfig.ExtraPolicies = cfg.Auth.Policies

	enforcer, err := authz.NewEnforcer(ctx, enforcerConfig)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	return authz.NewMiddleware(enforcer, auditLogger), nil
}
