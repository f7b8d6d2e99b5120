package main

import (
	"fmt"

	"github.com/maxviazov/config-grid-service/internal/config"
	"github.com/maxviazov/config-grid-service/internal/repository"
	"github.com/maxviazov/config-grid-service/internal/repository/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config loading failed: %w", err)
			}
			if !cfg.Postgres.Enabled {
				return fmt.Errorf("postgres is disabled in %s; nothing to migrate", configPath)
			}
			return postgres.Migrate(cmd.Context(), repository.DSN(cfg.Postgres), args[0])
		},
	}
}
