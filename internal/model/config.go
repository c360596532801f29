package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the sorting service.
type ServerConfig struct {
	// BaseURL is the root URL of the email-sorting API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// RetryConfig holds the retry/backoff policy applied to every remote call.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// BaseDelayMs is the initial backoff delay in milliseconds; it
	// doubles on each retry.
	BaseDelayMs int `mapstructure:"base_delay_ms" yaml:"base_delay_ms"`

	// JitterMs is the upper bound of the random jitter added to each
	// backoff delay.
	JitterMs int `mapstructure:"jitter_ms" yaml:"jitter_ms"`
}

// BulkConfig holds settings for bulk operations.
type BulkConfig struct {
	// Workers bounds the number of concurrent per-email calls.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// PageSize is how many emails are requested per page (1..100).
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// PollIntervalSec is how often the background refresher re-fetches
	// the account list. Zero disables polling.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Retry   RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Bulk    BulkConfig    `mapstructure:"bulk" yaml:"bulk"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailsort/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailsort", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Retry: RetryConfig{
			MaxRetries:  3,
			BaseDelayMs: 1000,
			JitterMs:    1000,
		},
		Bulk: BulkConfig{
			Workers: 8,
		},
		Display: DisplayConfig{
			PageSize:        20,
			PollIntervalSec: 120,
			Theme:           "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.timeout_sec", 30)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay_ms", 1000)
	v.SetDefault("retry.jitter_ms", 1000)
	v.SetDefault("bulk.workers", 8)
	v.SetDefault("display.page_size", 20)
	v.SetDefault("display.poll_interval_sec", 120)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// The service clamps page_size to 1..100; clamp here too so the
	// client and server agree on pagination math.
	if cfg.Display.PageSize < 1 || cfg.Display.PageSize > 100 {
		cfg.Display.PageSize = 20
	}
	if cfg.Bulk.Workers < 1 {
		cfg.Bulk.Workers = 8
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}

	return cfg, nil
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

	v.Set("server", cfg.Server)
	v.Set("retry", cfg.Retry)
	v.Set("bulk", cfg.Bulk)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
