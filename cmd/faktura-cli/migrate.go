package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"faktura/internal/log"
	"faktura/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Bring the SQLite schema to the latest version. The server also
migrates on start; this command lets you do it ahead of a deploy.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().Bool("status", false, "show the applied schema version without migrating")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := viper.GetString("database.path")
	logger := log.FromContext(cmd.Context()).WithComponent(log.ComponentStorage)

	if !status {
		logger.Info("Running database migrations", log.FieldPath, dbPath, log.FieldOperation, log.OpMigrate)
		if err := storage.RunMigrations(dbPath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", dbPath, version, state)
	return err
}
