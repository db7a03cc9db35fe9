// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package web exposes the account flows over HTTP.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"
)

// Options configures NewRouter.
type Options struct {
	Service  AuthService
	Resolver Resolver
	Logger   *slog.Logger

	// CORSOrigins lists allowed browser origins. Entries may use * globs.
	CORSOrigins []string
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means RemoteAddr is the client.
	TrustedProxies []string

	// Metrics instruments every request when set.
	Metrics func(http.Handler) http.Handler
	// RateLimit guards the credential endpoints when set.
	RateLimit func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// NewRouter builds the HTTP handler for the account API.
func NewRouter(opts Options) (http.Handler, error) {
	if opts.Service == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth service is required")
	}
	if opts.Resolver == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("session resolver is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = passthrough
	}
	limit := opts.RateLimit
	if limit == nil {
		limit = passthrough
	}

	corsMW, err := corsMiddleware(opts.CORSOrigins)
	if err != nil {
		return nil, err
	}
	proxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	h := &handler{
		service:   opts.Service,
		resolver:  opts.Resolver,
		logger:    logger,
		validator: newValidator(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(realIP(proxies))
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics)
	r.Use(secureHeaders())
	r.Use(corsMW)

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/", h.root)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.With(limit).Post("/login", h.login)
		r.With(h.requireUser).Get("/me", h.me)
		r.With(limit).Post("/forgot-password", h.forgotPassword)
		r.With(limit).Post("/reset-password", h.resetPassword)
	})

	return r, nil
}
