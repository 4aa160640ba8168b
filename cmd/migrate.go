package main

import (
	"fmt"

	"github.com/shenikar/incident_response_system/internal/config"
	"github.com/shenikar/incident_response_system/pkg/logger"
	"github.com/shenikar/incident_response_system/pkg/postgres"
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			dir := postgres.Direction(args[0])
			log.WithField("direction", dir).Info("Running database migrations...")
			if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsSource, dir); err != nil {
				return err
			}
			log.Info("Database migrations applied successfully")
			return nil
		},
	}
}
