package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "REVIEWLENS_CONFIG"
	addrEnv           = "REVIEWLENS_ADDR"
	lexiconPathEnv    = "REVIEWLENS_LEXICON"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	ginModeEnv        = "GIN_MODE"
)

// Database drivers understood by db.Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the settings shared by the server and the importer.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Lexicon     LexiconConfig     `yaml:"lexicon"`
	Predictions PredictionsConfig `yaml:"predictions"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig selects and configures the feedback store.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// LexiconConfig points at an optional lexicon override file.
type LexiconConfig struct {
	Path string `yaml:"path"`
}

// PredictionsConfig sizes the background classification pool.
type PredictionsConfig struct {
	BatchSize int `yaml:"batchSize"`
	Workers   int `yaml:"workers"`
}

// Load builds the configuration from defaults, the file named by
// REVIEWLENS_CONFIG (if any) and environment overrides. A broken file is
// logged and ignored.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			log.Printf("⚠️  config: %v (falling back to defaults)", err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile reads a YAML file and merges it over the defaults.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	cfg := merge(Default(), fileCfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != DriverMemory && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for %s", c.Database.Driver)
	}
	if c.Predictions.BatchSize < 1 || c.Predictions.Workers < 1 {
		return fmt.Errorf("predictions batchSize and workers must be positive")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(ginModeEnv); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv(lexiconPathEnv); v != "" {
		c.Lexicon.Path = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
}

func merge(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.Mode != "" {
		base.Server.Mode = override.Server.Mode
	}
	if len(override.Server.AllowedOrigins) > 0 {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Database.Driver != "" {
		base.Database.Driver = strings.ToLower(override.Database.Driver)
		// a different driver never inherits the default sqlite path
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.MaxIdleConns > 0 {
		base.Database.MaxIdleConns = override.Database.MaxIdleConns
	}
	if override.Database.MaxOpenConns > 0 {
		base.Database.MaxOpenConns = override.Database.MaxOpenConns
	}
	if override.Database.ConnMaxLifetime > 0 {
		base.Database.ConnMaxLifetime = override.Database.ConnMaxLifetime
	}

	if override.Lexicon.Path != "" {
		base.Lexicon.Path = override.Lexicon.Path
	}

	if override.Predictions.BatchSize != 0 {
		base.Predictions.BatchSize = override.Predictions.BatchSize
	}
	if override.Predictions.Workers != 0 {
		base.Predictions.Workers = override.Predictions.Workers
	}

	return base
}

// Default returns the settings used when nothing is configured: a local
// SQLite file and the built-in lexicon.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5000",
			Mode:            "release",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			DSN:             "./feedback.db",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Predictions: PredictionsConfig{
			BatchSize: 100,
			Workers:   5,
		},
	}
}
