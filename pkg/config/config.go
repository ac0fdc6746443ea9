// Package config loads APS settings.
//
// Configuration is loaded from:
// 1. aps.yaml (optional, or an explicit --config file)
// 2. Environment variables prefixed APS_ (storage.dir -> APS_STORAGE_DIR)
// 3. Default values
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends accepted by storage.backend
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Intake     IntakeConfig     `mapstructure:"intake"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// StorageConfig selects where master data snapshots live.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// SchedulingConfig tunes the slot search.
type SchedulingConfig struct {
	SearchWindowDays int `mapstructure:"search_window_days"`
}

// IntakeConfig controls demand normalization.
type IntakeConfig struct {
	// Year the monthly-aggregate columns refer to
	Year int `mapstructure:"year"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// New returns a viper instance with defaults, search paths and env binding set.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("aps")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.aps")

	v.SetEnvPrefix("APS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("storage.backend", BackendYAML)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.sqlite_path", "./data/aps.db")

	v.SetDefault("scheduling.search_window_days", 30)
	v.SetDefault("intake.year", time.Now().Year())

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Load reads configuration into a Config. An empty file uses the search paths
// and tolerates a missing file; an explicit file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks for configuration errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendYAML:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir must not be empty")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must not be empty")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendYAML, BackendSQLite, c.Storage.Backend)
	}
	if c.Scheduling.SearchWindowDays <= 0 {
		return fmt.Errorf("scheduling.search_window_days must be positive")
	}
	if c.Intake.Year < 1 {
		return fmt.Errorf("intake.year must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
