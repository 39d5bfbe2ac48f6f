// Package config loads runtime settings from defaults, an optional config
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the todo service.
type Config struct {
	AppPort         string
	APIPrefix       string
	ShutdownTimeout time.Duration

	DBDriver    string // "postgres" or "sqlite"
	DatabaseDSN string
	DBLogLevel  string

	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int

	RabbitMQURL     string // empty disables todo events
	TodoEventsQueue string

	LogLevel  string
	LogFormat string
}

// EventsEnabled reports whether todo lifecycle events are published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// setDefaults registers development defaults. JWT_SECRET has no default on
// purpose so a deployment cannot start with a guessable key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=todoapp port=5432 sslmode=disable")
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("JWT_ISSUER", "todoapp")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("TODO_EVENTS_QUEUE", "todo_events")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration using a fresh viper instance. If CONFIG_FILE is
// set, that file is merged on top of the defaults before the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		APIPrefix:       v.GetString("API_PREFIX"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		DBLogLevel:      v.GetString("DB_LOG_LEVEL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		TodoEventsQueue: v.GetString("TODO_EVENTS_QUEUE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}
