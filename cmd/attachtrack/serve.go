package main

import (
	"github.com/attachtrack/attachtrack/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, lgr, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cmd.Context(), cfg, lgr)
	if err != nil {
		return err
	}

	// Blocks until shutdown
	if err := srv.Run(); err != nil {
		return err
	}
	lgr.Info().Msg("Application finished gracefully.")
	return nil
}
