// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/internal/auth/memory"
	authmongo "github.com/mtgvault/mtgvault/internal/auth/mongo"
	authpg "github.com/mtgvault/mtgvault/internal/auth/postgres"
	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/observability"
	"github.com/mtgvault/mtgvault/internal/store"
)

// UserStore is an open user repository with its readiness probe.
type UserStore struct {
	Repo auth.UserRepository
	// Check is nil for stores that cannot become unavailable.
	Check observability.Check

	close func(ctx context.Context) error
}

// Close releases the store's connections.
func (s *UserStore) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func openUserStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*UserStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using the in-memory user store, accounts are lost on restart")
		return &UserStore{Repo: memory.NewUserRepository()}, nil

	case config.DriverPostgres:
		pool, err := store.Connect(ctx, cfg.URL, store.ConnectOptions{})
		if err != nil {
			return nil, err
		}
		return &UserStore{
			Repo:  authpg.NewUserRepository(pool),
			Check: pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverMongo:
		client, repo, err := authmongo.Open(ctx, cfg.URL, cfg.Name)
		if err != nil {
			return nil, err
		}
		return &UserStore{
			Repo: repo,
			Check: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			},
			close: client.Disconnect,
		}, nil
	}
	return nil, oops.Code("CONFIG_INVALID").
		With("field", "database.driver").
		Errorf("unknown database driver %q", cfg.Driver)
}

// autoMigrate applies pending migrations before serve accepts traffic.
func autoMigrate(url string, factory func(string) (AutoMigrator, error), logger *slog.Logger) (err error) {
	start := time.Now()
	migrator, err := factory(url)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").
			With("operation", "create migrator").
			Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").
			With("operation", "apply migrations").
			Wrapf(err, "auto migration failed")
	}
	logger.Info("database migrations applied", "duration", time.Since(start))
	return nil
}
