// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package config

import (
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"
)

// flagKeys maps override flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"metrics-addr":    "metrics.addr",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"redis-addr":      "redis.addr",
	"mail-delivery":   "mail.delivery",
}

// RegisterFlags adds the override flags to fs. Flags left unset do not
// override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "public HTTP listen address")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-driver", d.Database.Driver, "user store (memory, postgres, mongo)")
	fs.String("database-url", "", "database connection URL")
	fs.String("redis-addr", "", "redis address for rate limiting and the mail queue")
	fs.String("mail-delivery", d.Mail.Delivery, "reset email delivery (direct, queue, log)")
}

func mapFlag(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}

