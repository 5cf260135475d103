package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	srv "github.com/mohammad-safakhou/researcher/internal/server"
)

func migrateCMD(cfgPath *string) *cobra.Command {
	var migDir string
	var migDirDefault = "file://migrations"
	var direction string
	var steps int

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			if migDir == "" {
				migDir = migDirDefault
			}
			if err := srv.Migrate(migDir, cfg.Storage.Postgres, direction, steps); err != nil {
				return err
			}
			logger.Info("migrations applied", zap.String("dir", migDir), zap.String("direction", direction), zap.Int("steps", steps))
			return nil
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", migDirDefault, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
