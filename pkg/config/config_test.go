package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, BackendYAML, cfg.Storage.Backend)
	assert.Equal(t, "./data", cfg.Storage.Dir)
	assert.Equal(t, 30, cfg.Scheduling.SearchWindowDays)
	assert.Equal(t, time.Now().Year(), cfg.Intake.Year)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aps.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
storage:
  backend: sqlite
  sqlite_path: /tmp/aps-test.db
scheduling:
  search_window_days: 45
intake:
  year: 2025
`), 0o644))
	t.Setenv("APS_LOG_LEVEL", "debug")
	t.Setenv("APS_SERVER_ADDR", ":9090")

	cfg, err := Load(New(), file)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/aps-test.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 45, cfg.Scheduling.SearchWindowDays)
	assert.Equal(t, 2025, cfg.Intake.Year)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Log:        LogConfig{Level: "info", Format: "json"},
			Storage:    StorageConfig{Backend: BackendYAML, Dir: "./data"},
			Scheduling: SchedulingConfig{SearchWindowDays: 30},
			Intake:     IntakeConfig{Year: 2025},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"empty dir", func(c *Config) { c.Storage.Dir = "" }, "storage.dir"},
		{"sqlite without path", func(c *Config) { c.Storage.Backend = BackendSQLite }, "storage.sqlite_path"},
		{"zero window", func(c *Config) { c.Scheduling.SearchWindowDays = 0 }, "search_window_days"},
		{"zero year", func(c *Config) { c.Intake.Year = 0 }, "intake.year"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
