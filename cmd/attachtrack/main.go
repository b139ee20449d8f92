package main

import (
	"os"

	"github.com/attachtrack/attachtrack/internal/pkg/logger"
)

// @title attachtrack API
// @version 1.0
// @description Industrial attachment tracking: student and supervisor rosters, attachments and logbooks

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
