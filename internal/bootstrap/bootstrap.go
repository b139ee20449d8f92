package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/attachtrack/attachtrack/internal/app/controllers"
	appMigrations "github.com/attachtrack/attachtrack/internal/app/migrations"
	appRepos "github.com/attachtrack/attachtrack/internal/app/repositories"
	"github.com/attachtrack/attachtrack/internal/app/repositories/memstore"
	appRoutes "github.com/attachtrack/attachtrack/internal/app/routes"
	appServices "github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/attachtrack/attachtrack/internal/db"
	appMiddleware "github.com/attachtrack/attachtrack/internal/middleware"
	pkgAuth "github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/attachtrack/attachtrack/internal/pkg/email"
	"github.com/attachtrack/attachtrack/internal/pkg/helpers"
	"github.com/attachtrack/attachtrack/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store             appRepos.Store
	Hasher            pkgAuth.PasswordHasher
	JWTService        *pkgAuth.JWTService
	Notifier          email.Notifier
	AuthService       *appServices.AuthService
	IngestService     *appServices.RosterIngestService
	StudentService    *appServices.StudentService
	SupervisorService *appServices.SupervisorService
	AttachmentService *appServices.AttachmentService
	LogbookService    *appServices.LogbookService
	Controllers       appRoutes.Controllers
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Limiter           appMiddleware.Limiter
	Redis             *redis.Client
	Logger            zerolog.Logger
}

// Close releases the connections held by the dependencies
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) != "json"

	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  prettyLog,
		Service: "attachtrack",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenStore connects the configured store and applies migrations when
// enabled. The returned function releases the store.
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using the in-memory store, data will not survive a restart")
		return memstore.New(), func() {}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Database.AutoMigrate {
		if err := RunMigrations(ctx, database, lgr); err != nil {
			database.Close()
			return nil, nil, err
		}
	}

	return appRepos.NewPostgresStore(database), database.Close, nil
}

// RunMigrations applies the bundled schema migrations
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.Files()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes application services, controllers and middleware.
func BuildDependencies(cfg *config.Config, store appRepos.Store, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Store: store, Logger: lgr}

	deps.Hasher = pkgAuth.NewBcryptHasher(cfg.Auth.BcryptCost)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 8*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.Notifier = email.NewNotifier(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		LoginURL:  cfg.SMTP.LoginURL,
	}, lgr)

	deps.AuthService = appServices.NewAuthService(store, deps.Hasher, deps.JWTService, lgr)
	deps.IngestService = appServices.NewRosterIngestService(store, deps.Hasher, deps.Notifier, cfg.Ingest.MaxBatchSize, lgr)
	deps.StudentService = appServices.NewStudentService(store, lgr)
	deps.SupervisorService = appServices.NewSupervisorService(store, lgr)
	deps.AttachmentService = appServices.NewAttachmentService(store, lgr)
	deps.LogbookService = appServices.NewLogbookService(store, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	if cfg.RateLimit.Enabled {
		deps.Limiter = newLimiter(cfg, deps)
	}

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		Student:    appControllers.NewStudentController(deps.StudentService, deps.IngestService, lgr),
		Supervisor: appControllers.NewSupervisorController(deps.SupervisorService, deps.IngestService, lgr),
		Attachment: appControllers.NewAttachmentController(deps.AttachmentService, lgr),
		Logbook:    appControllers.NewLogbookController(deps.LogbookService, lgr),
	}

	return deps, nil
}

// newLimiter shares counters through redis when an address is configured
func newLimiter(cfg *config.Config, deps *Dependencies) appMiddleware.Limiter {
	if cfg.Redis.Addr == "" {
		deps.Logger.Info().Msg("Rate limiting with in-process counters")
		return appMiddleware.NewMemoryLimiter()
	}
	deps.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	deps.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("Rate limiting through redis")
	return appMiddleware.NewRedisLimiter(deps.Redis, "attachtrack:ratelimit:")
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	if cfg.Metrics.Enabled {
		router.Use(appMiddleware.Metrics())
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	appRoutes.SetupSwagger(router)

	window := helpers.ParseDuration(cfg.RateLimit.Window, time.Minute)
	appRoutes.SetupRouter(router,
		deps.Controllers,
		deps.AuthMiddleware,
		appRoutes.RateLimit{Limiter: deps.Limiter, Requests: cfg.RateLimit.Requests, Window: window},
		func(c *gin.Context) error { return deps.Store.Ping(c.Request.Context()) },
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router, nil
}
