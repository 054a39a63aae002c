// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/embergate/embergate/internal/config"
	"github.com/embergate/embergate/internal/store"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending database migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := migrateUp(url); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}

			migrator, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer closeMigrator(migrator)

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}

			if version == 0 {
				cmd.Println("No migrations applied")
				return nil
			}

			name, err := store.MigrationName(version)
			if err != nil {
				return err
			}
			cmd.Printf("Version: %d (%s)\n", version, name)
			if dirty {
				cmd.Println("State: DIRTY - manual recovery required")
			} else {
				cmd.Println("State: clean")
			}
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func newMigrateForceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version without running any migrations.
Only for recovering from a dirty state after fixing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return oops.Code("INVALID_VERSION").Errorf("version must be a non-negative integer, got %q", args[0])
			}

			url, err := databaseURL(cmd)
			if err != nil {
				return err
			}

			migrator, err := store.NewMigrator(url)
			if err != nil {
				return err
			}
			defer closeMigrator(migrator)

			if err := migrator.Force(version); err != nil {
				return err
			}
			cmd.Printf("Forced migration version to %d\n", version)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// databaseURL resolves the database URL from config file, flags, or the
// DATABASE_URL environment variable.
func databaseURL(cmd *cobra.Command) (string, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" && !cmd.Flags().Changed("database-url") {
		return url, nil
	}
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return "", err
	}
	return cfg.DatabaseURL, nil
}

// migrateUp applies all pending migrations.
func migrateUp(url string) error {
	migrator, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator)

	return migrator.Up()
}

func closeMigrator(m *store.Migrator) {
	if err := m.Close(); err != nil {
		slog.Warn("error closing migrator", "error", err)
	}
}
