// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envKeys maps the environment variable names the service has always used
// to configuration keys.
var envKeys = map[string]string{
	"SECRET_KEY":                  "auth.secret_key",
	"ALGORITHM":                   "auth.algorithm",
	"ACCESS_TOKEN_EXPIRE_MINUTES": "auth.access_token_expire_minutes",
	"HASH_SCHEME":                 "auth.hash_scheme",
	"BCRYPT_COST":                 "auth.bcrypt_cost",
	"RESET_LINK_BASE_URL":         "auth.reset_link_base_url",
	"GMAIL_USER":                  "mail.sender",
	"GMAIL_APP_PASSWORD":          "mail.app_password",
	"SMTP_HOST":                   "mail.host",
	"SMTP_PORT":                   "mail.port",
	"MAIL_DELIVERY":               "mail.delivery",
	"DATABASE_DRIVER":             "database.driver",
	"DATABASE_URL":                "database.url",
	"DATABASE_NAME":               "database.name",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_ADDR":                  "redis.addr",
	"REDIS_PASSWORD":              "redis.password",
	"REDIS_DB":                    "redis.db",
	"HTTP_ADDR":                   "http.addr",
	"CORS_ORIGINS":                "http.cors_origins",
	"TRUSTED_PROXIES":             "http.trusted_proxies",
	"RATE_LIMIT":                  "http.rate_limit",
	"RATE_WINDOW":                 "http.rate_window",
	"SHUTDOWN_TIMEOUT":            "http.shutdown_timeout",
	"METRICS_ADDR":                "metrics.addr",
	"LOG_FORMAT":                  "log.format",
	"LOG_LEVEL":                   "log.level",
}

// DefaultEnvFile is read when present and no other .env file is named.
const DefaultEnvFile = ".env"

// LoadOptions names the optional sources.
type LoadOptions struct {
	// File is a YAML config file. Empty skips it.
	File string
	// EnvFile is a dotenv file. Empty tries DefaultEnvFile and ignores its
	// absence; a named file must exist.
	EnvFile string
	// Flags holds command-line overrides registered by RegisterFlags.
	Flags *pflag.FlagSet
}

// Load builds the configuration from all sources and validates it.
func Load(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", opts.File).Wrap(err)
		}
		if err := ValidateFile(data); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("source", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", opts.File).Wrap(err)
		}
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}
	if len(dotenv) > 0 {
		if err := k.Load(confmap.Provider(dotenv, "."), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "dotenv").Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", mapEnv), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, mapFlag(opts.Flags)), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("operation", "decode").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"auth.secret_key":                  d.Auth.SecretKey,
		"auth.algorithm":                   d.Auth.Algorithm,
		"auth.access_token_expire_minutes": d.Auth.AccessTokenExpireMinutes,
		"auth.hash_scheme":                 d.Auth.HashScheme,
		"auth.bcrypt_cost":                 d.Auth.BcryptCost,
		"auth.reset_link_base_url":         d.Auth.ResetLinkBaseURL,
		"mail.sender":                      d.Mail.Sender,
		"mail.app_password":                d.Mail.AppPassword,
		"mail.host":                        d.Mail.Host,
		"mail.port":                        d.Mail.Port,
		"mail.delivery":                    d.Mail.Delivery,
		"database.driver":                  d.Database.Driver,
		"database.url":                     d.Database.URL,
		"database.name":                    d.Database.Name,
		"database.auto_migrate":            d.Database.AutoMigrate,
		"redis.addr":                       d.Redis.Addr,
		"redis.password":                   d.Redis.Password,
		"redis.db":                         d.Redis.DB,
		"http.addr":                        d.HTTP.Addr,
		"http.cors_origins":                d.HTTP.CORSOrigins,
		"http.trusted_proxies":             d.HTTP.TrustedProxies,
		"http.rate_limit":                  d.HTTP.RateLimit,
		"http.rate_window":                 d.HTTP.RateWindow.String(),
		"http.shutdown_timeout":            d.HTTP.ShutdownTimeout.String(),
		"metrics.addr":                     d.Metrics.Addr,
		"log.format":                       d.Log.Format,
		"log.level":                        d.Log.Level,
	}
}

// mapEnv keeps only known variables. List values are comma separated.
func mapEnv(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok {
		return "", nil
	}
	if key == "http.cors_origins" || key == "http.trusted_proxies" {
		return key, splitList(value)
	}
	return key, value
}

func readEnvFile(path string) (map[string]any, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", path).Wrap(err)
	}
	out := make(map[string]any, len(vars))
	for name, value := range vars {
		if key, v := mapEnv(name, value); key != "" {
			out[key] = v
		}
	}
	return out, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
