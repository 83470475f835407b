// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/guildgate/guildgate/internal/store"
)

// newMigrateCmd creates the migrate subcommand with up/down/version.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, or inspect schema migrations against the PostgreSQL database.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops the users table)",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE:  runMigrateVersion,
	})

	return cmd
}

// databaseURL resolves the connection URL from the DATABASE_URL
// environment variable, so migrations can run without a config file.
func databaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return url, nil
}

func newMigrator() (*store.Migrator, error) {
	url, err := databaseURL()
	if err != nil {
		return nil, err
	}
	return store.NewMigrator(url)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	cmd.Println("Applying migrations...")
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations applied successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return err
	}
	cmd.Println("Migrations rolled back")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		cmd.Println("No migrations applied")
		return nil
	}
	cmd.Printf("Version: %d (dirty: %t)\n", version, dirty)
	return nil
}
