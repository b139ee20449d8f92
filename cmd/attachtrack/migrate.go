package main

import (
	"fmt"

	"github.com/attachtrack/attachtrack/internal/bootstrap"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/attachtrack/attachtrack/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lgr, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations need the %s driver, configured driver is %s",
					config.DriverPostgres, cfg.Database.Driver)
			}

			database, err := db.NewPostgresDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return bootstrap.RunMigrations(cmd.Context(), database, lgr)
		},
	}
}
