// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/pkg/errutil"
)

func TestConfigShow_MasksSecrets(t *testing.T) {
	resetGlobals(t)
	t.Setenv("SECRET_KEY", "very-secret-signing-key")
	t.Setenv("DATABASE_URL", "postgres://mtg:hunter2@db:5432/mtg")

	out, err := runRoot(t, "config", "show", "--http-addr", ":9000")

	require.NoError(t, err)
	assert.NotContains(t, out, "very-secret-signing-key")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, ":9000")
}

func TestConfigSchema(t *testing.T) {
	resetGlobals(t)

	out, err := runRoot(t, "config", "schema")

	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])
}

func TestConfigValidate(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("http:\n  rate_limit: 5\n"), 0o600))
	out, err := runRoot(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database:\n  driver: sqlite\n"), 0o600))
	_, err = runRoot(t, "config", "validate", bad)
	errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")

	_, err = runRoot(t, "config", "validate", filepath.Join(dir, "missing.yaml"))
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
