package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// StorageConfig selects the feed store backend.
type StorageConfig struct {
	Type string `yaml:"type"` // "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // public URL used in RSS self links
}

// WatcherConfig configures the background poller.
type WatcherConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	Schedule     string        `yaml:"schedule"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Concurrency  int           `yaml:"concurrency"`
}

// NotifyConfig configures webhook delivery.
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig configures outbound page fetches.
type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
}

// FileConfig represents the structure of ~/.feedgen/config.yaml.
type FileConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Watcher WatcherConfig `yaml:"watcher"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// Default returns the configuration used when nothing is set.
func Default() *FileConfig {
	dsn := "feedgen.db"
	if dir, err := Dir(); err == nil {
		dsn = filepath.Join(dir, "feedgen.db")
	}

	return &FileConfig{
		Storage: StorageConfig{
			Type: "sqlite",
			DSN:  dsn,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Watcher: WatcherConfig{
			Enabled:      true,
			Interval:     300 * time.Second,
			FetchTimeout: 10 * time.Second,
			Concurrency:  1,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the feedgen directory in the user's home, ~/.feedgen.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".feedgen"), nil
}

// DefaultPath returns ~/.feedgen/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile parses the YAML file at path on top of base, returning nil if
// the file doesn't exist. Only keys present in the file are changed.
func LoadFile(path string, base *FileConfig) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the YAML file
// (path, or ~/.feedgen/config.yaml when path is empty), then FEEDGEN_*
// environment variables. An explicit path that does not exist is an error.
func Load(path string) (*FileConfig, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	loaded, err := LoadFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if loaded == nil && explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if loaded != nil {
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment,
// skipping files that do not exist. Variables already set win.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides values from FEEDGEN_* variables found by lookup.
func (c *FileConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = d
		return nil
	}

	str("FEEDGEN_STORAGE_TYPE", &c.Storage.Type)
	str("FEEDGEN_STORAGE_DSN", &c.Storage.DSN)
	str("FEEDGEN_SERVER_ADDR", &c.Server.Addr)
	str("FEEDGEN_API_KEY", &c.Server.APIKey)
	str("FEEDGEN_BASE_URL", &c.Server.BaseURL)
	str("FEEDGEN_WATCHER_SCHEDULE", &c.Watcher.Schedule)
	str("FEEDGEN_LOG_LEVEL", &c.Log.Level)
	str("FEEDGEN_LOG_FORMAT", &c.Log.Format)
	str("FEEDGEN_USER_AGENT", &c.HTTP.UserAgent)

	if err := dur("FEEDGEN_WATCHER_INTERVAL", &c.Watcher.Interval); err != nil {
		return err
	}
	if err := dur("FEEDGEN_WATCHER_FETCH_TIMEOUT", &c.Watcher.FetchTimeout); err != nil {
		return err
	}
	if err := dur("FEEDGEN_NOTIFY_TIMEOUT", &c.Notify.Timeout); err != nil {
		return err
	}

	if v, ok := lookup("FEEDGEN_WATCHER_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FEEDGEN_WATCHER_CONCURRENCY: %v", ErrInvalidConfig, err)
		}
		c.Watcher.Concurrency = n
	}
	if v, ok := lookup("FEEDGEN_WATCHER_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: FEEDGEN_WATCHER_ENABLED: %v", ErrInvalidConfig, err)
		}
		c.Watcher.Enabled = b
	}

	return nil
}

// Validate checks that the configuration can be used to start feedgen.
func (c *FileConfig) Validate() error {
	var problems []string

	switch strings.ToLower(c.Storage.Type) {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		problems = append(problems, fmt.Sprintf("storage.type must be sqlite or postgres, got %q", c.Storage.Type))
	}
	if c.Storage.DSN == "" {
		problems = append(problems, "storage.dsn is required")
	}
	if c.Watcher.Interval <= 0 && c.Watcher.Schedule == "" {
		problems = append(problems, "watcher.interval must be positive")
	}
	if c.Watcher.Schedule != "" {
		if _, err := cron.ParseStandard(c.Watcher.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("watcher.schedule: %v", err))
		}
	}
	if c.Watcher.FetchTimeout <= 0 {
		problems = append(problems, "watcher.fetch_timeout must be positive")
	}
	if c.Watcher.Concurrency < 1 {
		problems = append(problems, "watcher.concurrency must be at least 1")
	}
	if c.Notify.Timeout <= 0 {
		problems = append(problems, "notify.timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
