package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes content to ~/.feedgen/config.yaml under a fake HOME
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	feedgenDir := filepath.Join(tmpDir, ".feedgen")
	require.NoError(t, os.MkdirAll(feedgenDir, 0o700))

	configPath := filepath.Join(feedgenDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func noEnv(string) (string, bool) { return "", false }

func TestLoadFile_NoFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"), &FileConfig{})
	require.NoError(t, err)
	assert.Nil(t, cfg, "Should return nil when config file doesn't exist")
}

func TestLoadFile_ValidConfig(t *testing.T) {
	path := writeConfig(t, `storage:
  type: "postgres"
  dsn: "postgres://localhost/feedgen?sslmode=disable"
server:
  addr: "127.0.0.1:9000"
  api_key: "k"
  base_url: "https://feeds.example.com"
watcher:
  interval: 10m
  fetch_timeout: 5s
  concurrency: 4
notify:
  timeout: 3s
log:
  level: debug
  format: json
http:
  user_agent: "custom/1.0"
`)

	cfg, err := LoadFile(path, &FileConfig{})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/feedgen?sslmode=disable", cfg.Storage.DSN)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "k", cfg.Server.APIKey)
	assert.Equal(t, "https://feeds.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Watcher.Interval)
	assert.Equal(t, 5*time.Second, cfg.Watcher.FetchTimeout)
	assert.Equal(t, 4, cfg.Watcher.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "custom/1.0", cfg.HTTP.UserAgent)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `storage:
  - this is invalid yaml because storage should be an object not a list
`)

	cfg, err := LoadFile(path, &FileConfig{})
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoad_Defaults verifies the effective configuration with no file and
// no environment
func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, filepath.Join(home, ".feedgen", "feedgen.db"), cfg.Storage.DSN)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 300*time.Second, cfg.Watcher.Interval)
	assert.Equal(t, 10*time.Second, cfg.Watcher.FetchTimeout)
	assert.Equal(t, 1, cfg.Watcher.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestLoad_PartialFileKeepsDefaults verifies that keys missing from the file
// keep their defaults
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `watcher:
  interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Watcher.Interval)
	assert.Equal(t, 10*time.Second, cfg.Watcher.FetchTimeout, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Storage.Type)
}

// TestLoad_ExplicitPathMissing verifies a named config file must exist
func TestLoad_ExplicitPathMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

// TestLoad_EnvOverridesFile verifies environment variables win over the
// file
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `storage:
  dsn: /from/file.db
watcher:
  interval: 1m
`)
	t.Setenv("FEEDGEN_STORAGE_DSN", "/from/env.db")
	t.Setenv("FEEDGEN_WATCHER_INTERVAL", "90s")
	t.Setenv("FEEDGEN_WATCHER_CONCURRENCY", "3")
	t.Setenv("FEEDGEN_WATCHER_ENABLED", "false")
	t.Setenv("FEEDGEN_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env.db", cfg.Storage.DSN)
	assert.Equal(t, 90*time.Second, cfg.Watcher.Interval)
	assert.Equal(t, 3, cfg.Watcher.Concurrency)
	assert.False(t, cfg.Watcher.Enabled)
	assert.Equal(t, "from-env", cfg.Server.APIKey)
}

// TestApplyEnv_Invalid verifies malformed environment values are rejected
func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"FEEDGEN_WATCHER_INTERVAL":    "soon",
		"FEEDGEN_NOTIFY_TIMEOUT":      "10",
		"FEEDGEN_WATCHER_CONCURRENCY": "many",
		"FEEDGEN_WATCHER_ENABLED":     "perhaps",
	}

	for key, value := range tests {
		cfg := Default()
		err := cfg.ApplyEnv(func(k string) (string, bool) {
			if k == key {
				return value, true
			}
			return "", false
		})
		assert.ErrorIs(t, err, ErrInvalidConfig, key)
	}
}

// TestValidate verifies configuration problems are reported together
func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(noEnv))
	cfg.Storage.Type = "mongodb"
	cfg.Watcher.Concurrency = 0
	cfg.Watcher.Schedule = "every tuesday"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "storage.type")
	assert.Contains(t, err.Error(), "watcher.concurrency")
	assert.Contains(t, err.Error(), "watcher.schedule")
	assert.Contains(t, err.Error(), "log.format")
}

// TestValidate_ScheduleReplacesInterval verifies a cron schedule may stand
// in for the interval
func TestValidate_ScheduleReplacesInterval(t *testing.T) {
	cfg := Default()
	cfg.Watcher.Interval = 0
	cfg.Watcher.Schedule = "*/5 * * * *"

	assert.NoError(t, cfg.Validate())
}

// TestLoadEnvFiles verifies .env loading and that missing files are skipped
func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("FEEDGEN_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("FEEDGEN_TEST_DOTENV", "")
	os.Unsetenv("FEEDGEN_TEST_DOTENV")

	err := LoadEnvFiles(filepath.Join(dir, "missing.env"), envPath)
	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv("FEEDGEN_TEST_DOTENV"))
}
