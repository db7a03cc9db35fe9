// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals clears the persistent flag targets between command runs and
// hides any config file in the real XDG directory.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""
	envFile = ""
	t.Cleanup(func() {
		configFile = ""
		envFile = ""
	})
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "worker", "migrate", "config"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	resetGlobals(t)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config=/etc/mtgvault.yaml", "--env-file", "/run/secrets/env", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/etc/mtgvault.yaml", configFile)
	assert.Equal(t, "/run/secrets/env", envFile)
}

func TestRootCommand_OverrideFlagsInherited(t *testing.T) {
	cmd := NewRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	for _, name := range []string{"http-addr", "metrics-addr", "log-format", "database-driver", "mail-delivery"} {
		assert.NotNil(t, serve.InheritedFlags().Lookup(name), "serve should inherit --%s", name)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestLoadConfig_UsesXDGFile(t *testing.T) {
	resetGlobals(t)
	base := os.Getenv("XDG_CONFIG_HOME")
	dir := filepath.Join(base, "mtgvault")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o600))

	cfg, err := loadConfig(NewServeCmd())

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
