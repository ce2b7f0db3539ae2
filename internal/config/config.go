package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the flat flowtrack configuration.
type Config struct {
	Version string `json:"version"`

	// RemoteURL is the base URL of the sync backend. Empty means fully
	// offline: mutations queue locally until a remote is configured.
	RemoteURL string `json:"remote_url,omitempty"`

	// Timezone is the default IANA zone for new schedules. Empty means UTC.
	Timezone string `json:"timezone,omitempty"`

	// Sync tuning. Zero values use the built-in defaults.
	SyncMaxAttempts   int `json:"sync_max_attempts,omitempty"`
	SyncBaseBackoffMS int `json:"sync_base_backoff_ms,omitempty"`
	SyncMaxBackoffMS  int `json:"sync_max_backoff_ms,omitempty"`
	SyncWorkers       int `json:"sync_workers,omitempty"`
	SyncIntervalSec   int `json:"sync_interval_sec,omitempty"`

	// LookaheadDays bounds reminder trigger computation.
	LookaheadDays int `json:"lookahead_days,omitempty"`
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".flowtrack", "config.json"), nil
}

// LoadConfig reads ~/.flowtrack/config.json. A missing file is not an
// error; it yields the zero config and everything runs on defaults.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads a config file from an explicit path.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{Version: "1"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the config file, creating the directory if needed.
func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, cfg)
}

// SaveConfigTo writes a config file to an explicit path.
func SaveConfigTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
