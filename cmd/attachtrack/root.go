package main

import (
	"path/filepath"

	"github.com/attachtrack/attachtrack/internal/bootstrap"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "attachtrack",
		Short: "Industrial attachment tracking service",
		Long: `attachtrack keeps student and supervisor rosters, attachment assignments
and logbooks behind a REST API.

Run without a subcommand to start the HTTP server.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c",
		filepath.Join("configs", "config.yaml"), "path to the YAML configuration file")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd())
	return root
}

// loadConfig reads the configuration and installs the logger
func loadConfig() (*config.Config, zerolog.Logger, error) {
	return bootstrap.LoadConfigAndSetupLogger(configPath)
}
