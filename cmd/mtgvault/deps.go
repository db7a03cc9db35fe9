// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net"

	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/observability"
	"github.com/mtgvault/mtgvault/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// UserStoreOpener opens the configured user store.
	// Default: openUserStore
	UserStoreOpener func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*UserStore, error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, logger *slog.Logger) ObservabilityServer

	// ListenerFactory creates the public HTTP listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// LogOutput receives log records.
	// Default: os.Stderr
	LogOutput io.Writer
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.UserStoreOpener == nil {
		out.UserStoreOpener = openUserStore
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = newMigrator
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, logger)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	return &out
}

func newMigrator(url string) (AutoMigrator, error) {
	return store.NewMigrator(url)
}

// AutoMigrator wraps the methods serve uses from store.Migrator.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	AddCheck(name string, check observability.Check)
}
