// Package config loads tool configuration from a .env file and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all settings for a report run.
type Config struct {
	// Unity Connection admin API
	BaseURL     string `env:"CUPI_BASE_URL"`
	Username    string `env:"CUPI_USERNAME"`
	Password    string `env:"CUPI_PASSWORD"`
	RowsPerPage int    `env:"CUPI_ROWS_PER_PAGE" envDefault:"200"`
	InsecureTLS bool   `env:"CUPI_INSECURE_TLS" envDefault:"false"`

	// Optional response cache; empty disables caching
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Report behavior
	OutputPath    string `env:"REPORT_OUTPUT" envDefault:"call_handler_schedules.csv"`
	StrictResolve bool   `env:"REPORT_STRICT_RESOLVE" envDefault:"false"`
	IncludeAll    bool   `env:"REPORT_INCLUDE_ALL" envDefault:"false"`

	// Request pacing; 0 disables
	PaceInterval time.Duration `env:"PACE_INTERVAL" envDefault:"0"`

	// Optional metrics/health listener, e.g. ":9090"; empty disables
	MetricsAddr string `env:"METRICS_ADDR"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads .env (when present) and the environment, applies defaults,
// and validates required settings.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "CUPI_BASE_URL")
	}
	if cfg.Username == "" {
		missing = append(missing, "CUPI_USERNAME")
	}
	if cfg.Password == "" {
		missing = append(missing, "CUPI_PASSWORD")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %v", missing)
	}

	if cfg.RowsPerPage <= 0 {
		return Config{}, fmt.Errorf("CUPI_ROWS_PER_PAGE must be positive, got %d", cfg.RowsPerPage)
	}

	return cfg, nil
}
