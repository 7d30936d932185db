// Package config loads and persists the client configuration. The config
// file is JSON; missing files are created with defaults, and a handful of
// environment variables override the file for scripted use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	DataDir    string `json:"data_dir"`
	LogLevel   string `json:"log_level"`
	TokenStore string `json:"token_store"`
	Theme      string `json:"theme"`
	API        struct {
		BaseURL        string `json:"base_url"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"api"`
}

// DefaultPath is the config location when the caller does not override it.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".docdash", "config.json")
}

func defaults() *Config {
	cfg := &Config{
		DataDir:    filepath.Join(os.Getenv("HOME"), ".docdash"),
		LogLevel:   "info",
		TokenStore: "file",
		Theme:      "dark",
	}
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.TimeoutSeconds = 30
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("DOCDASH_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if dataDir := os.Getenv("DOCDASH_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level := os.Getenv("DOCDASH_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if store := os.Getenv("DOCDASH_TOKEN_STORE"); store != "" {
		cfg.TokenStore = store
	}
	if theme := os.Getenv("DOCDASH_THEME"); theme != "" {
		cfg.Theme = theme
	}

	return cfg, nil
}

// Save writes the config atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ListValues returns the effective config as a flat dot-keyed map.
func ListValues(path string) (map[string]any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Flatten(toMap(cfg)), nil
}

// GetValue returns a single value by dot-separated key.
func GetValue(path, key string) (any, error) {
	flat, err := ListValues(path)
	if err != nil {
		return nil, err
	}
	value, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return value, nil
}

// SetValue updates a single value by dot-separated key and saves the
// file. The key must already exist; the string value is coerced to the
// existing value's type.
func SetValue(path, key, value string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	flat := Flatten(toMap(cfg))
	existing, ok := flat[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	coerced, err := coerce(value, existing)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	flat[key] = coerced

	updated := &Config{}
	data, err := json.Marshal(Unflatten(flat))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return Save(path, updated)
}

// coerce converts the CLI-provided string to match the existing value's
// JSON type.
func coerce(value string, existing any) (any, error) {
	switch existing.(type) {
	case float64:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", value)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", value)
		}
		return b, nil
	default:
		return value, nil
	}
}

// toMap round-trips the config through JSON into a generic map so it can
// be flattened.
func toMap(cfg *Config) map[string]any {
	data, _ := json.Marshal(cfg)
	var m map[string]any
	json.Unmarshal(data, &m)
	return m
}
