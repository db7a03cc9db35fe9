// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

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

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/ratelimit"
	"github.com/mtgvault/mtgvault/internal/web"
)

const readHeaderTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the public HTTP API serving registration, login, the current
user and password reset, plus the metrics and health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the API until ctx is canceled or a listener fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	logger, err := newLogger(cfg, deps.LogOutput)
	if err != nil {
		return err
	}

	if cfg.InsecureSecret() {
		logger.Warn("using the built-in signing secret, set SECRET_KEY before exposing this service")
	}

	if cfg.Database.Driver == config.DriverPostgres && cfg.Database.AutoMigrate {
		if err := autoMigrate(cfg.Database.URL, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	users, err := deps.UserStoreOpener(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := users.Close(closeCtx); err != nil {
			logger.Warn("error closing user store", "error", err)
		}
	}()
	logger.Info("user store ready", "driver", cfg.Database.Driver)

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Debug("error closing redis client", "error", err)
			}
		}()
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Debug("error closing notifier", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		recorder  auth.Recorder
		metricsMW func(http.Handler) http.Handler
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, logger)
		recorder = obsServer.Metrics()
		metricsMW = obsServer.Metrics().Middleware
		if users.Check != nil {
			obsServer.AddCheck("users", users.Check)
		}
		if rdb != nil {
			obsServer.AddCheck("redis", func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		}
	}

	handler, err := newAPIHandler(cfg, users.Repo, notifier, rdb, recorder, metricsMW, logger)
	if err != nil {
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	httpErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	if obsServer != nil {
		obsErr, err := obsServer.Start()
		if err != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer shutdownCancel()
			if stopErr := srv.Shutdown(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop http server during cleanup", "error", stopErr)
			}
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErr, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	cmd.Println("API listening on", listener.Addr().String())
	logger.Info("api ready",
		"addr", listener.Addr().String(),
		"mail_delivery", cfg.Mail.Delivery,
		"hash_scheme", cfg.Auth.HashScheme)

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-httpErr:
		if ok && err != nil {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

// newAPIHandler wires the account flows behind the HTTP router.
func newAPIHandler(
	cfg config.Config,
	users auth.UserRepository,
	notifier auth.Notifier,
	rdb *redis.Client,
	recorder auth.Recorder,
	metricsMW func(http.Handler) http.Handler,
	logger *slog.Logger,
) (http.Handler, error) {
	scheme, err := auth.ParseScheme(cfg.Auth.HashScheme)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewSchemeHasher(scheme, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.Auth.SecretKey),
		Algorithm: cfg.Auth.Algorithm,
	})
	if err != nil {
		return nil, err
	}
	links, err := auth.NewResetLinkBuilder(cfg.Auth.ResetLinkBaseURL)
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(auth.ServiceConfig{
		Users:      users,
		Hasher:     hasher,
		Tokens:     tokens,
		Notifier:   notifier,
		Links:      links,
		SessionTTL: cfg.Auth.SessionTTL(),
		Logger:     logger,
		Recorder:   recorder,
	})
	if err != nil {
		return nil, err
	}
	resolver, err := auth.NewSessionResolver(tokens, users)
	if err != nil {
		return nil, err
	}

	limit, err := ratelimit.Middleware(ratelimit.Config{
		Limit:  cfg.HTTP.RateLimit,
		Window: cfg.HTTP.RateWindow,
		Redis:  rdb,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return web.NewRouter(web.Options{
		Service:        svc,
		Resolver:       resolver,
		Logger:         logger,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Metrics:        metricsMW,
		RateLimit:      limit,
	})
}

// monitorServerErrors cancels ctx when a server reports an error.
// It exits when an error is received, the channel is closed, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
