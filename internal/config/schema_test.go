// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/pkg/errutil"
)

func TestSchema(t *testing.T) {
	data, err := config.Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, section := range []string{"auth", "mail", "database", "redis", "http", "metrics", "log"} {
		assert.Contains(t, props, section)
	}
	assert.NotContains(t, doc, "required", "every key is optional in a config file")
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{name: "empty", yaml: ""},
		{name: "partial", yaml: "auth:\n  algorithm: HS384\n"},
		{name: "duration and list", yaml: "http:\n  rate_window: 90s\n  cors_origins: [\"http://localhost:5173\"]\n"},
		{name: "unknown section", yaml: "cards:\n  limit: 3\n", code: "CONFIG_SCHEMA_VIOLATION"},
		{name: "wrong type", yaml: "mail:\n  port: smtp\n", code: "CONFIG_SCHEMA_VIOLATION"},
		{name: "bad enum", yaml: "database:\n  driver: sqlite\n", code: "CONFIG_SCHEMA_VIOLATION"},
		{name: "bad duration", yaml: "http:\n  rate_window: soon\n", code: "CONFIG_SCHEMA_VIOLATION"},
		{name: "not yaml", yaml: "auth: [unclosed", code: "CONFIG_PARSE_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateFile([]byte(tt.yaml))
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}
