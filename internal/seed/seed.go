package seed

import (
	"context"

	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/rs/zerolog"
)

// CreateDefaultAdmin creates the Admin credential configured under seed when
// it does not exist yet. Without a configured password nothing is created.
func CreateDefaultAdmin(ctx context.Context, authService *services.AuthService, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Seed.AdminPassword == "" {
		lgr.Warn().Msg("seed.admin_password is empty, skipping default admin creation")
		return nil
	}

	lgr.Info().Str("username", cfg.Seed.AdminUsername).Msg("Checking/Creating default admin...")
	created, err := authService.EnsureAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		return err
	}
	if created {
		lgr.Info().Str("username", cfg.Seed.AdminUsername).Msg("Default admin created, password change required on first login")
	}
	return nil
}
