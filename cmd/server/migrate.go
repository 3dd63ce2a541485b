package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/config"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/postgres"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/sqlite"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured SQL store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			switch cfg.Storage.Driver {
			case config.DriverSQLite:
				db, err := sqlite.Open(cfg.Storage.SQLitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := sqlite.RunMigrations(cmd.Context(), db); err != nil {
					return err
				}
			case config.DriverPostgres:
				if err := postgres.RunMigrations(cmd.Context(), cfg.Storage.PostgresDSN); err != nil {
					return err
				}
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "storage driver %s has no migrations\n", cfg.Storage.Driver)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Storage.Driver)
			return nil
		},
	}
}
