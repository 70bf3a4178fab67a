package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for the persisted session record.
const (
	StorageKeyring = "keyring"
	StorageSQLite  = "sqlite"
)

// APIConfig holds connection settings for the todo backend.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://todo.example.com/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AssetBaseURL is the origin profile images are served from. When
	// empty it defaults to BaseURL. A trailing /api is stripped before use.
	AssetBaseURL string `mapstructure:"asset_base_url" yaml:"asset_base_url"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StorageConfig selects where the session record is persisted.
type StorageConfig struct {
	// Backend is "keyring" or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite file. The keyring backend keeps its encrypted
	// file fallback in the same directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// SessionConfig tunes session behavior.
type SessionConfig struct {
	// RefreshIntervalSec re-fetches the profile while the dashboard is
	// open. Zero disables it.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Timeout returns the request timeout as a duration.
func (c *AppConfig) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// RefreshInterval returns the profile poll interval. Zero disables polling.
func (c *AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Session.RefreshIntervalSec) * time.Second
}

// AssetBase returns the configured asset origin, falling back to the API
// base URL.
func (c *AppConfig) AssetBase() string {
	if c.API.AssetBaseURL != "" {
		return c.API.AssetBaseURL
	}
	return c.API.BaseURL
}

// ConfigDir returns ~/.config/todo-ui, or the working directory when the
// home directory can't be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "todo-ui")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/todo-ui/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:3000/api",
			TimeoutSec: 30,
		},
		Storage: StorageConfig{
			Backend: StorageKeyring,
			Path:    filepath.Join(dir, "session.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "debug.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// TODOUI_* environment variables (e.g. TODOUI_API_BASE_URL) override both.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODOUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.asset_base_url", "")
	v.SetDefault("api.timeout_sec", defaults.API.TimeoutSec)
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("session.refresh_interval_sec", 0)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects settings the client can't run with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	switch c.Storage.Backend {
	case StorageKeyring, StorageSQLite:
	default:
		return fmt.Errorf(
			"storage.backend %q is not supported (use %q or %q)",
			c.Storage.Backend, StorageKeyring, StorageSQLite,
		)
	}
	if c.Session.RefreshIntervalSec < 0 {
		return fmt.Errorf("session.refresh_interval_sec must not be negative")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("storage", cfg.Storage)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
