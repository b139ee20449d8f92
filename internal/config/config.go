package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// MaxIngestBatch is the hard ceiling on records per bulk upload
const MaxIngestBatch = 200

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string   `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		ReadTimeout     string   `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string   `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		TrustedProxies  []string `yaml:"trusted_proxies" env:"SERVER_TRUSTED_PROXIES"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Auth struct {
		BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`
	} `yaml:"auth"`

	Ingest struct {
		MaxBatchSize int `yaml:"max_batch_size" env:"INGEST_MAX_BATCH_SIZE"`
	} `yaml:"ingest"`

	RateLimit struct {
		Enabled  bool   `yaml:"enabled" env:"RATELIMIT_ENABLED"`
		Requests int    `yaml:"requests" env:"RATELIMIT_REQUESTS"`
		Window   string `yaml:"window" env:"RATELIMIT_WINDOW"`
	} `yaml:"ratelimit"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		LoginURL  string `yaml:"login_url" env:"SMTP_LOGIN_URL"`
	} `yaml:"smtp"`

	Seed struct {
		AdminUsername string `yaml:"admin_username" env:"SEED_ADMIN_USERNAME"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	} `yaml:"seed"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration from a file, an optional .env file and
// environment variables, in that order of increasing precedence.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Variables already present in the environment win over .env entries
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "3m"

	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "attachtrack"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.AutoMigrate = true

	config.JWT.AccessTokenExpiration = "8h"
	config.JWT.Issuer = "attachtrack"

	config.Logging.Level = "info"
	config.Logging.Format = "console"

	config.Auth.BcryptCost = 12

	config.Ingest.MaxBatchSize = MaxIngestBatch

	config.RateLimit.Enabled = true
	config.RateLimit.Requests = 10
	config.RateLimit.Window = "1m"

	config.SMTP.Port = 587
	config.SMTP.FromName = "Attachment Office"

	config.Seed.AdminUsername = "admin"

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}
	if _, err := time.ParseDuration(config.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server shutdown timeout: %w", err)
	}
	if _, err := time.ParseDuration(config.Server.ReadTimeout); err != nil {
		return fmt.Errorf("invalid server read timeout: %w", err)
	}
	if _, err := time.ParseDuration(config.Server.WriteTimeout); err != nil {
		return fmt.Errorf("invalid server write timeout: %w", err)
	}

	if config.Ingest.MaxBatchSize <= 0 || config.Ingest.MaxBatchSize > MaxIngestBatch {
		return fmt.Errorf("ingest max_batch_size must be between 1 and %d", MaxIngestBatch)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("ratelimit requests must be positive")
		}
		if _, err := time.ParseDuration(config.RateLimit.Window); err != nil {
			return fmt.Errorf("invalid ratelimit window: %w", err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
