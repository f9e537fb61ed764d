// Package config loads application configuration.
// Priority order: environment variables > .env file > YAML file > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/sweep"
)

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
)

// Environment variable names.
const (
	EnvStorageBackend     = "DRAWGAP_STORAGE_BACKEND"
	EnvPostgresDSN        = "DRAWGAP_POSTGRES_DSN"
	EnvClickHouseDSN      = "DRAWGAP_CLICKHOUSE_DSN"
	EnvClickHouseDatabase = "DRAWGAP_CLICKHOUSE_DATABASE"
	EnvLogLevel           = "DRAWGAP_LOG_LEVEL"
	EnvLogPretty          = "DRAWGAP_LOG_PRETTY"
	EnvSweepWorkers       = "DRAWGAP_SWEEP_WORKERS"
)

// Config holds all configuration values.
type Config struct {
	Simulation domain.SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig           `yaml:"storage"`
	Log        LogConfig               `yaml:"log"`
	Sweep      SweepConfig             `yaml:"sweep"`
	Report     ReportConfig            `yaml:"report"`
}

// StorageConfig selects where draw days are read from and written to.
type StorageConfig struct {
	Backend            string `yaml:"backend"`
	PostgresDSN        string `yaml:"postgres_dsn"`
	ClickHouseDSN      string `yaml:"clickhouse_dsn"`
	ClickHouseDatabase string `yaml:"clickhouse_database"` // overrides the DSN's database when set
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// SweepConfig configures parameter sweeps.
type SweepConfig struct {
	Workers int        `yaml:"workers"` // 0 means GOMAXPROCS
	Top     int        `yaml:"top"`     // leaderboard rows, 0 means all
	Grid    sweep.Grid `yaml:"grid"`
}

// ReportConfig configures run reports.
type ReportConfig struct {
	TopGaps int `yaml:"top_gaps"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Simulation: domain.DefaultSimulationConfig(),
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Log: LogConfig{
			Level: "info",
		},
		Sweep: SweepConfig{
			Top: 20,
		},
		Report: ReportConfig{
			TopGaps: simulation.DefaultTopGaps,
		},
	}
}

// Load builds the configuration. path is an optional YAML file. envFiles are
// loaded with godotenv; when none are given ".env" is tried and may be absent.
// Variables already present in the environment are never overridden by a
// .env file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.Backend = getEnv(EnvStorageBackend, c.Storage.Backend)
	c.Storage.PostgresDSN = getEnv(EnvPostgresDSN, c.Storage.PostgresDSN)
	c.Storage.ClickHouseDSN = getEnv(EnvClickHouseDSN, c.Storage.ClickHouseDSN)
	c.Storage.ClickHouseDatabase = getEnv(EnvClickHouseDatabase, c.Storage.ClickHouseDatabase)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.Log.Pretty = getEnvBool(EnvLogPretty, c.Log.Pretty)
	c.Sweep.Workers = getEnvInt(EnvSweepWorkers, c.Sweep.Workers)
}

// Validate checks every section. Simulation violations are returned as
// *domain.InvalidConfigurationError values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for the postgres backend", EnvPostgresDSN))
		}
	case BackendClickHouse:
		if c.Storage.ClickHouseDSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for the clickhouse backend", EnvClickHouseDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if c.Sweep.Workers < 0 {
		errs = append(errs, fmt.Errorf("sweep workers must be >= 0"))
	}
	if c.Sweep.Top < 0 {
		errs = append(errs, fmt.Errorf("sweep top must be >= 0"))
	}
	if c.Report.TopGaps < 0 {
		errs = append(errs, fmt.Errorf("report top_gaps must be >= 0"))
	}

	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// MaskedPostgresDSN returns the DSN with most characters hidden for logging.
func (c *Config) MaskedPostgresDSN() string {
	return maskSecret(c.Storage.PostgresDSN)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
