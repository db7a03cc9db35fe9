// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

// Package config loads the service configuration once at startup.
//
// Sources are layered lowest to highest: built-in defaults, an optional YAML
// file, an optional .env file, the process environment and command-line
// flags. The result is a plain value; components receive the pieces they
// need and nothing reads the environment after Load returns.
package config

import (
	"net/url"
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/mtgvault/mtgvault/internal/auth"
	"github.com/mtgvault/mtgvault/internal/logging"
)

// InsecureDefaultSecret is the placeholder signing secret used when none is configured.
const InsecureDefaultSecret = "supersecretkey"

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Mail delivery modes.
const (
	DeliveryDirect = "direct"
	DeliveryQueue  = "queue"
	DeliveryLog    = "log"
)

// Config is the complete service configuration.
type Config struct {
	Auth     AuthConfig     `koanf:"auth" yaml:"auth"`
	Mail     MailConfig     `koanf:"mail" yaml:"mail"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Redis    RedisConfig    `koanf:"redis" yaml:"redis"`
	HTTP     HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
}

// AuthConfig configures hashing, tokens and reset links.
type AuthConfig struct {
	SecretKey                string `koanf:"secret_key" yaml:"secret_key" jsonschema:"minLength=1"`
	Algorithm                string `koanf:"algorithm" yaml:"algorithm" jsonschema:"enum=HS256,enum=HS384,enum=HS512"`
	AccessTokenExpireMinutes int    `koanf:"access_token_expire_minutes" yaml:"access_token_expire_minutes" jsonschema:"minimum=1"`
	HashScheme               string `koanf:"hash_scheme" yaml:"hash_scheme" jsonschema:"enum=argon2id,enum=bcrypt"`
	BcryptCost               int    `koanf:"bcrypt_cost" yaml:"bcrypt_cost" jsonschema:"minimum=4,maximum=31"`
	ResetLinkBaseURL         string `koanf:"reset_link_base_url" yaml:"reset_link_base_url" jsonschema:"format=uri"`
}

// SessionTTL is the lifetime of session tokens.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// MailConfig configures reset email delivery.
type MailConfig struct {
	Sender      string `koanf:"sender" yaml:"sender"`
	AppPassword string `koanf:"app_password" yaml:"app_password"`
	Host        string `koanf:"host" yaml:"host"`
	Port        int    `koanf:"port" yaml:"port" jsonschema:"minimum=1,maximum=65535"`
	Delivery    string `koanf:"delivery" yaml:"delivery" jsonschema:"enum=direct,enum=queue,enum=log"`
}

// Enabled reports whether SMTP credentials are present.
func (m MailConfig) Enabled() bool {
	return m.Sender != "" && m.AppPassword != ""
}

// DatabaseConfig selects and locates the user store.
type DatabaseConfig struct {
	Driver string `koanf:"driver" yaml:"driver" jsonschema:"enum=memory,enum=postgres,enum=mongo"`
	URL    string `koanf:"url" yaml:"url"`
	Name   string `koanf:"name" yaml:"name"`

	// AutoMigrate applies pending postgres migrations when serve starts.
	AutoMigrate bool `koanf:"auto_migrate" yaml:"auto_migrate"`
}

// RedisConfig locates the redis used by the rate limiter and job queue.
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password"`
	DB       int    `koanf:"db" yaml:"db" jsonschema:"minimum=0"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// HTTPConfig configures the public listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	CORSOrigins     []string      `koanf:"cors_origins" yaml:"cors_origins"`
	TrustedProxies  []string      `koanf:"trusted_proxies" yaml:"trusted_proxies"`
	RateLimit       int           `koanf:"rate_limit" yaml:"rate_limit" jsonschema:"minimum=1"`
	RateWindow      time.Duration `koanf:"rate_window" yaml:"rate_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MetricsConfig configures the ops listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Auth: AuthConfig{
			SecretKey:                InsecureDefaultSecret,
			Algorithm:                auth.DefaultAlgorithm,
			AccessTokenExpireMinutes: int(auth.DefaultSessionTTL / time.Minute),
			HashScheme:               string(auth.SchemeArgon2id),
			BcryptCost:               12,
			ResetLinkBaseURL:         "https://your-frontend.vercel.app/reset-password",
		},
		Mail: MailConfig{
			Host:     "smtp.gmail.com",
			Port:     465,
			Delivery: DeliveryDirect,
		},
		Database: DatabaseConfig{
			Driver:      DriverMemory,
			Name:        "mtg",
			AutoMigrate: true,
		},
		HTTP: HTTPConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:5173"},
			RateLimit:       10,
			RateWindow:      time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
	}
}

// InsecureSecret reports whether the signing secret is the placeholder.
func (c Config) InsecureSecret() bool {
	return c.Auth.SecretKey == InsecureDefaultSecret
}

// Validate checks cross-field rules the loaders cannot express.
func (c Config) Validate() error {
	invalid := func(field string, value any, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").
			With("field", field).
			With("value", value).
			Errorf(format, args...)
	}

	if c.Auth.SecretKey == "" {
		return invalid("auth.secret_key", "", "secret key must not be empty")
	}
	if !slices.Contains([]string{"HS256", "HS384", "HS512"}, c.Auth.Algorithm) {
		return invalid("auth.algorithm", c.Auth.Algorithm, "unsupported signing algorithm %q", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return invalid("auth.access_token_expire_minutes", c.Auth.AccessTokenExpireMinutes, "token lifetime must be positive")
	}
	if _, err := auth.ParseScheme(c.Auth.HashScheme); err != nil {
		return invalid("auth.hash_scheme", c.Auth.HashScheme, "unknown hash scheme %q", c.Auth.HashScheme)
	}
	if u, err := url.Parse(c.Auth.ResetLinkBaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return invalid("auth.reset_link_base_url", c.Auth.ResetLinkBaseURL, "reset link base must be an absolute URL")
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMongo:
		if c.Database.URL == "" {
			return invalid("database.url", "", "%s driver requires a database url", c.Database.Driver)
		}
	default:
		return invalid("database.driver", c.Database.Driver, "unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverMongo && c.Database.Name == "" {
		return invalid("database.name", "", "mongo driver requires a database name")
	}

	switch c.Mail.Delivery {
	case DeliveryDirect, DeliveryLog:
	case DeliveryQueue:
		if !c.Redis.Enabled() {
			return invalid("mail.delivery", c.Mail.Delivery, "queued delivery requires redis.addr")
		}
	default:
		return invalid("mail.delivery", c.Mail.Delivery, "unknown mail delivery %q", c.Mail.Delivery)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", "", "http listen address must not be empty")
	}
	if c.HTTP.RateLimit <= 0 || c.HTTP.RateWindow <= 0 {
		return invalid("http.rate_limit", c.HTTP.RateLimit, "rate limit and window must be positive")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", c.Log.Format, "log format must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "unknown log level %q", c.Log.Level)
	}
	return nil
}
