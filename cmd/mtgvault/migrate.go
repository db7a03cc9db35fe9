// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mtgvault/mtgvault/internal/config"
	"github.com/mtgvault/mtgvault/internal/store"
)

// schemaMigrator wraps the methods used from store.Migrator.
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// openMigrator is replaced in tests.
var openMigrator = func(url string) (schemaMigrator, error) {
	return store.NewMigrator(url)
}

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL users schema",
		Long: `Apply, roll back or inspect the users schema in the database named by
database.url. Running migrate without a subcommand applies all pending migrations.`,
		RunE: runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  `Roll back the given number of migrations, or all of them with --steps=0. Rolling back everything drops the users table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m schemaMigrator) error {
				if steps == 0 {
					cmd.Println("Rolling back all migrations...")
					return m.Down()
				}
				cmd.Printf("Rolling back %d migration(s)...\n", steps)
				return m.Steps(-steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "migrations to roll back (0 = all)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied version and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m schemaMigrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				dirty := ""
				if st.Dirty {
					dirty = " (dirty)"
				}
				cmd.Printf("Current version: %d%s\n", st.Version, dirty)
				if len(st.Pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				cmd.Println("Pending migrations:")
				for _, mig := range st.Pending {
					cmd.Printf("  %06d %s\n", mig.Version, mig.Name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long:  `Set the recorded schema version and clear the dirty flag. Use after fixing a failed migration by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m schemaMigrator) error {
				cmd.Printf("Forcing version %d...\n", version)
				return m.Force(version)
			})
		},
	})

	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m schemaMigrator) error {
		cmd.Println("Running migrations...")
		return m.Up()
	})
}

// withMigrator opens a migrator on the configured database, runs fn and
// closes it.
func withMigrator(cmd *cobra.Command, fn func(schemaMigrator) error) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	url, err := databaseURL(cfg)
	if err != nil {
		return err
	}

	m, err := openMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fn(m); err != nil {
		return err
	}
	cmd.Println("Done")
	return nil
}

func databaseURL(cfg config.Config) (string, error) {
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("field", "database.url").
			Errorf("database.url (DATABASE_URL) is required")
	}
	return cfg.Database.URL, nil
}

func parseForceVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	version, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrapf(err, "version must be an integer")
	}
	return version, nil
}
