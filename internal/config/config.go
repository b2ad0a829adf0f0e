package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service
type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Database
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Redis backs the settings cache and the preflight session store. Empty keeps both in memory.
	RedisURL string `env:"REDIS_URL"`

	// Events
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic  string   `env:"EVENTS_TOPIC" envDefault:"quiz.attempts"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`
	Casdoor   CasdoorConfig

	// Scheduled tasks
	OverdueInterval  time.Duration `env:"OVERDUE_INTERVAL" envDefault:"1m"`
	OverdueBatchSize int           `env:"OVERDUE_BATCH_SIZE" envDefault:"200"`

	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"5m"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

// CasdoorConfig holds the Casdoor application settings
type CasdoorConfig struct {
	Endpoint     string `env:"CASDOOR_ENDPOINT"`
	ClientID     string `env:"CASDOOR_CLIENT_ID"`
	ClientSecret string `env:"CASDOOR_CLIENT_SECRET"`
	Cert         string `env:"CASDOOR_CERT"`
	Organization string `env:"CASDOOR_ORGANIZATION"`
	Application  string `env:"CASDOOR_APPLICATION"`
}

// Enabled reports whether Casdoor is configured
func (c CasdoorConfig) Enabled() bool {
	return c.Endpoint != "" && c.ClientID != ""
}

// LoadConfig reads .env when present and then the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be expressed with defaults
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "file:quiz_access.db?_pragma=foreign_keys(1)"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" && !c.Casdoor.Enabled() {
		return fmt.Errorf("either JWT_SECRET or the CASDOOR_* settings are required")
	}
	if c.OverdueInterval <= 0 {
		return fmt.Errorf("OVERDUE_INTERVAL must be positive")
	}
	return nil
}
