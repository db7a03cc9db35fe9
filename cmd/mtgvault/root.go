// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/logging"
	"github.com/mtgvault/mtgvault/internal/xdg"
)

const serviceName = "mtgvault"

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the MTGVault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mtgvault",
		Short: "MTGVault - account service for the MTG card collection app",
		Long: `MTGVault runs the account backend of the MTG card collection app:
registration, bearer-token login and password reset by email.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default: .env when present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig reads the configuration for cmd from the global sources and
// the command's flags. Without --config the XDG config file is used when
// present.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file := configFile
	if file == "" {
		var err error
		if file, err = xdg.ConfigFile(); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(config.LoadOptions{
		File:    file,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	})
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	logger, err := logging.Setup(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, w)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
