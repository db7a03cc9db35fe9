// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package config

import (
	"net/url"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Redacted returns a copy with secrets masked, safe to print or log.
func (c Config) Redacted() Config {
	out := c
	out.HTTP.CORSOrigins = append([]string(nil), c.HTTP.CORSOrigins...)
	out.HTTP.TrustedProxies = append([]string(nil), c.HTTP.TrustedProxies...)
	if out.Auth.SecretKey != "" {
		out.Auth.SecretKey = redacted
	}
	if out.Mail.AppPassword != "" {
		out.Mail.AppPassword = redacted
	}
	if out.Redis.Password != "" {
		out.Redis.Password = redacted
	}
	out.Database.URL = redactURL(out.Database.URL)
	return out
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	return data, nil
}
