// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package ratelimit throttles the credential endpoints per client address.
//
// With redis the limit is a sliding window shared by every replica. Without
// it each process enforces its own window through httprate.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const defaultKeyPrefix = "mtgvault:ratelimit:"

// Config describes a limit of Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
	// Redis enables the shared limiter. Nil selects the in-process one.
	Redis  *redis.Client
	Logger *slog.Logger
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a redis sorted-set sliding window.
type Limiter struct {
	redis     *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
	logger    *slog.Logger
	now       func() time.Time
}

// NewLimiter returns a redis-backed Limiter.
func NewLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) (*Limiter, error) {
	if client == nil {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").Errorf("redis client is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").
			With("limit", limit).
			With("window", window.String()).
			Errorf("limit and window must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		redis:     client,
		limit:     limit,
		window:    window,
		keyPrefix: defaultKeyPrefix,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// slidingWindow trims the window, counts it and records the request only
// when it fits, all in one step so concurrent callers cannot overshoot.
// Scores and the member are passed as strings to keep nanosecond precision.
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
if count < tonumber(ARGV[3]) then
  redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
  redis.call('PEXPIRE', KEYS[1], ARGV[5])
  return {1, count, ''}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {0, count, oldest[2] or ''}
`)

// Allow records a request under key and reports whether it fits the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowStart := now.Add(-l.window)

	res, err := slidingWindow.Run(ctx, l.redis, []string{l.keyPrefix + key},
		strconv.FormatInt(now.UnixNano(), 10),
		strconv.FormatInt(windowStart.UnixNano(), 10),
		l.limit,
		ulid.Make().String(),
		l.window.Milliseconds(),
	).Slice()
	if err != nil {
		return Decision{}, oops.Code("RATELIMIT_CHECK_FAILED").With("key", key).Wrap(err)
	}
	if len(res) != 3 {
		return Decision{}, oops.Code("RATELIMIT_CHECK_FAILED").With("key", key).Errorf("unexpected script reply %v", res)
	}
	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	if allowed == 0 {
		reset := now.Add(l.window)
		if oldest, _ := res[2].(string); oldest != "" {
			if score, err := strconv.ParseFloat(oldest, 64); err == nil {
				reset = time.Unix(0, int64(score)).Add(l.window)
			}
		}
		return Decision{Allowed: false, ResetAt: reset}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: l.limit - int(count) - 1,
		ResetAt:   now.Add(l.window),
	}, nil
}

// Middleware enforces the limit per client IP and route. A redis failure lets
// the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r) + ":" + r.URL.Path
		d, err := l.Allow(r.Context(), key)
		if err != nil {
			l.logger.WarnContext(r.Context(), "best-effort rate limit check failed",
				"operation", "rate_limit",
				"error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			retry := int(d.ResetAt.Sub(l.now()).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeLimited(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware picks the redis limiter when cfg.Redis is set and httprate otherwise.
func Middleware(cfg Config) (func(http.Handler) http.Handler, error) {
	if cfg.Redis != nil {
		l, err := NewLimiter(cfg.Redis, cfg.Limit, cfg.Window, cfg.Logger)
		if err != nil {
			return nil, err
		}
		return l.Middleware, nil
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, oops.Code("RATELIMIT_CONFIG_INVALID").
			With("limit", cfg.Limit).
			With("window", cfg.Window.String()).
			Errorf("limit and window must be positive")
	}
	return httprate.Limit(cfg.Limit, cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeLimited(w)
		}),
	), nil
}

func writeLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"detail":"Too many requests"}`))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
