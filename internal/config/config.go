// Package config loads the client configuration: a JSON file under the
// state directory with field-by-field defaults and environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Storage backends for the persisted conversation state.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config holds the user's persistent preferences.
type Config struct {
	BaseURL             string `json:"base_url"`
	Storage             string `json:"storage"`
	Theme               string `json:"theme"` // "dark" or "light"
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

// Default returns the built-in configuration. The base URL matches the
// backend's local development address.
func Default() *Config {
	return &Config{
		BaseURL:             "http://127.0.0.1:5000",
		Storage:             StorageFile,
		Theme:               "dark",
		PollIntervalSeconds: 15,
	}
}

// DefaultStateDir returns the per-user directory holding config, state and
// logs.
func DefaultStateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, "medbot"), nil
}

// Load reads config.json from dir. A missing or unreadable file yields the
// defaults; present fields override them one by one. Environment variables
// override both.
func Load(dir string) *Config {
	cfg := Default()

	if data, err := os.ReadFile(filepath.Join(dir, "config.json")); err == nil {
		var file Config
		if json.Unmarshal(data, &file) == nil {
			if file.BaseURL != "" {
				cfg.BaseURL = file.BaseURL
			}
			if file.Storage == StorageFile || file.Storage == StorageSQLite {
				cfg.Storage = file.Storage
			}
			if file.Theme == "dark" || file.Theme == "light" {
				cfg.Theme = file.Theme
			}
			if file.PollIntervalSeconds > 0 {
				cfg.PollIntervalSeconds = file.PollIntervalSeconds
			}
		}
	}

	applyEnv(cfg)
	return cfg
}

// LoadOrInit loads like Load, first seeding dir/config.json with the
// defaults when no file exists yet so users have something to edit.
// Seeding failures are ignored; the in-memory defaults still apply.
func LoadOrInit(dir string) *Config {
	if _, err := os.Stat(filepath.Join(dir, "config.json")); os.IsNotExist(err) {
		_ = Save(dir, Default())
	}
	return Load(dir)
}

// Save writes the configuration back to dir/config.json.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MEDBOT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("MEDBOT_STORAGE"); v == StorageFile || v == StorageSQLite {
		cfg.Storage = v
	}
	if v := os.Getenv("MEDBOT_THEME"); v == "dark" || v == "light" {
		cfg.Theme = v
	}
	if v := os.Getenv("MEDBOT_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollIntervalSeconds = n
		}
	}
}
