// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

// Command api is the entry point for the contacts HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and apply migrations.
//  4. Connect to Redis, or run in store-only mode.
//  5. Build the token codec, password hasher, notifier and avatar store.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/annetade/contacts/internal/api"
	"github.com/annetade/contacts/internal/platform/config"
	"github.com/annetade/contacts/internal/platform/constants"
	"github.com/annetade/contacts/internal/platform/mailer"
	"github.com/annetade/contacts/internal/platform/middleware"
	"github.com/annetade/contacts/internal/platform/migration"
	pgstore "github.com/annetade/contacts/internal/platform/postgres"
	redisstore "github.com/annetade/contacts/internal/platform/redis"
	"github.com/annetade/contacts/internal/platform/sec"
	"github.com/annetade/contacts/internal/platform/storage"
	"github.com/annetade/contacts/internal/users/account"
	"github.com/annetade/contacts/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("cache_enabled", cfg.CacheEnabled()),
		slog.Bool("mail_enabled", cfg.MailEnabled()),
		slog.Bool("avatar_storage_enabled", cfg.AvatarStorageEnabled()),
	)

	// Root context for startup, bounded so misconfiguration fails fast.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("postgres_pool_closing")
		pool.Close()
	}()

	if cfg.RunMigrations {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
	}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	healthDeps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
	}

	var userCache auth.UserCache = auth.NopUserCache{}
	if cfg.CacheEnabled() {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("redis_unavailable_store_only_mode", slog.Any("error", err))
		} else {
			defer func() {
				log.Info("redis_client_closing")
				if cerr := rdb.Close(); cerr != nil {
					log.Error("redis_close_failed", slog.Any("error", cerr))
				}
			}()

			userCache = auth.NewRedisUserCache(rdb, cfg.Environment)
			healthDeps.CheckCache = func(ctx context.Context) error {
				return redisstore.Ping(ctx, rdb)
			}
		}
	}

	// ── 5. Security, Mail & Media ─────────────────────────────────────────
	codec, err := sec.NewTokenCodec(sec.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		Issuer:    constants.AuthIssuer,
		AccessTTL: cfg.AccessTokenTTL,
		EmailTTL:  cfg.EmailTokenTTL,
	})
	must(log, err, "initialize token codec")

	hasher, err := sec.NewPasswordHasher(cfg.BcryptCost)
	must(log, err, "initialize password hasher")

	var delivery mailer.Notifier = mailer.NewLogNotifier(log)
	if cfg.MailEnabled() {
		delivery, err = mailer.NewSMTPNotifier(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			BaseURL:  cfg.PublicBaseURL,
		})
		must(log, err, "initialize smtp notifier")
	}
	notifier := mailer.NewDispatcher(delivery)

	var avatars account.AvatarStore
	if cfg.AvatarStorageEnabled() {
		avatars, err = storage.NewS3AvatarStore(startupCtx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		must(log, err, "initialize avatar storage")
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	userRepository := auth.NewUserRepository(pool)
	resolver := auth.NewResolver(codec, userRepository, userCache, cfg.UserCacheTTL)

	authService := auth.NewService(userRepository, userCache, codec, hasher, notifier)
	accountService := account.NewService(userRepository, userCache, avatars)

	runCtx, stopLimiters := context.WithCancel(context.Background())
	defer stopLimiters()

	globalLimiter := middleware.NewRateLimiter(rate.Limit(constants.DefaultRateLimitRPS), constants.DefaultRateLimitBurst)
	profileLimiter := middleware.PerMinute(constants.ProfileRateLimitPerMinute)
	if cfg.TrustProxyHeaders {
		globalLimiter.TrustProxyHeaders()
		profileLimiter.TrustProxyHeaders()
	}
	go globalLimiter.Run(runCtx)
	go profileLimiter.Run(runCtx)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, globalLimiter, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, resolver),
		Account:   account.NewHandler(accountService, resolver, profileLimiter),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("server_shutdown_failed", slog.Any("error", err))
	}

	// Let queued lifecycle emails finish before the process exits.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), constants.NotificationTimeout)
	defer drainCancel()
	if err := notifier.Wait(drainCtx); err != nil {
		log.Warn("notifier_drain_incomplete", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

// newLogger builds the JSON root logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
