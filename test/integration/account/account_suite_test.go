// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

//go:build integration

// Package account_test runs the account flows over HTTP against PostgreSQL.
package account_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtgvault/mtgvault/internal/auth"
	authpg "github.com/mtgvault/mtgvault/internal/auth/postgres"
	"github.com/mtgvault/mtgvault/internal/store"
	"github.com/mtgvault/mtgvault/internal/web"
)

func TestAccount(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Account Integration Suite")
}

// outbox captures reset notices instead of sending mail.
type outbox struct {
	mu      sync.Mutex
	notices []auth.ResetNotice
}

func (o *outbox) SendPasswordReset(_ context.Context, n auth.ResetNotice) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, n)
	return nil
}

func (o *outbox) last() auth.ResetNotice {
	o.mu.Lock()
	defer o.mu.Unlock()
	Expect(o.notices).NotTo(BeEmpty())
	return o.notices[len(o.notices)-1]
}

// testEnv holds all resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	container testcontainers.Container
	server    *httptest.Server
	outbox    *outbox
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("mtg_test"),
		postgres.WithUsername("mtg"),
		postgres.WithPassword("mtg"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}
	e := &testEnv{ctx: ctx, container: container, outbox: &outbox{}}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		e.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		e.cleanup()
		return nil, err
	}
	upErr := migrator.Up()
	_ = migrator.Close()
	if upErr != nil {
		e.cleanup()
		return nil, upErr
	}

	e.pool, err = store.Connect(ctx, connStr, store.ConnectOptions{})
	if err != nil {
		e.cleanup()
		return nil, err
	}

	handler, err := newHandler(authpg.NewUserRepository(e.pool), e.outbox)
	if err != nil {
		e.cleanup()
		return nil, err
	}
	e.server = httptest.NewServer(handler)
	return e, nil
}

func newHandler(users auth.UserRepository, notifier auth.Notifier) (http.Handler, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("integration-secret")})
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewSchemeHasher(auth.SchemeBcrypt, bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	links, err := auth.NewResetLinkBuilder("https://app.example.com/reset-password")
	if err != nil {
		return nil, err
	}
	svc, err := auth.NewService(auth.ServiceConfig{
		Users:    users,
		Hasher:   hasher,
		Tokens:   tokens,
		Notifier: notifier,
		Links:    links,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	resolver, err := auth.NewSessionResolver(tokens, users)
	if err != nil {
		return nil, err
	}
	return web.NewRouter(web.Options{Service: svc, Resolver: resolver, Logger: logger})
}

func (e *testEnv) cleanup() {
	if e.server != nil {
		e.server.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}
