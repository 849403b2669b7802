// Package config handles configuration loading and management for ninegate.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for ninegate.
type Config struct {
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Approval   ApprovalConfig   `mapstructure:"approval"`
	Preview    PreviewConfig    `mapstructure:"preview"`
	Events     EventsConfig     `mapstructure:"events"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

// TimeoutsConfig holds per-check command timeouts.
type TimeoutsConfig struct {
	Install   time.Duration `mapstructure:"install"`
	TypeCheck time.Duration `mapstructure:"typecheck"`
	Build     time.Duration `mapstructure:"build"`
	Test      time.Duration `mapstructure:"test"`
	E2E       time.Duration `mapstructure:"e2e"`
	Lint      time.Duration `mapstructure:"lint"`
	Security  time.Duration `mapstructure:"security"`
}

// ThresholdsConfig holds pass/fail thresholds for proof validators.
type ThresholdsConfig struct {
	// Coverage is the minimum aggregate coverage percentage (0-100).
	Coverage float64 `mapstructure:"coverage"`
	// Lighthouse is the minimum per-category lighthouse score (0-1).
	Lighthouse float64 `mapstructure:"lighthouse"`
}

// ApprovalConfig holds the accepted approval vocabulary. Tokens not on the
// list are treated as ambiguous and rejected.
type ApprovalConfig struct {
	Vocabulary []string `mapstructure:"vocabulary"`
}

// PreviewConfig holds the local port range probed when looking for a
// running preview server.
type PreviewConfig struct {
	PortStart int `mapstructure:"port_start"`
	PortEnd   int `mapstructure:"port_end"`
}

// EventsConfig holds notification sink settings. An empty NATS URL means
// events are dropped (noop sink).
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
}

// CacheConfig holds TTLs for derived-data caches.
type CacheConfig struct {
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (NINEGATE_*)
// 2. Project config (.ninegate.yaml in current directory or parent)
// 3. User config (~/.config/ninegate/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("NINEGATE")
	v.AutomaticEnv()
	v.BindEnv("events.nats_url", "NINEGATE_NATS_URL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in defaults without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Install is the slowest check; build/test/e2e are bounded at 5 minutes,
	// everything else at 2.
	v.SetDefault("timeouts.install", "10m")
	v.SetDefault("timeouts.typecheck", "2m")
	v.SetDefault("timeouts.build", "5m")
	v.SetDefault("timeouts.test", "5m")
	v.SetDefault("timeouts.e2e", "5m")
	v.SetDefault("timeouts.lint", "2m")
	v.SetDefault("timeouts.security", "2m")

	v.SetDefault("thresholds.coverage", 80.0)
	v.SetDefault("thresholds.lighthouse", 0.80)

	v.SetDefault("approval.vocabulary", []string{
		"approve", "approved", "yes", "lgtm", "ship it", "looks good",
	})

	v.SetDefault("preview.port_start", 3000)
	v.SetDefault("preview.port_end", 3010)

	v.SetDefault("events.nats_url", "")

	v.SetDefault("cache.summary_ttl", "5m")
}

// getUserConfigDir returns the XDG config directory for ninegate.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ninegate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ninegate")
}

// findProjectConfig walks up from the current directory looking for a
// .ninegate.yaml file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".ninegate.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}
