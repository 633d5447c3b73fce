// Package config provides configuration management for pdeck.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// DefaultConfigPath returns ~/.config/pdeck/config.toml, honouring
// XDG_CONFIG_HOME when it is set.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pdeck", "config.toml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "pdeck", "config.toml")
}

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
func DetectConfigPath() string {
	configPath := DefaultConfigPath()
	if configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}
	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &pdeckerrors.ConfigError{Path: path, Err: pdeckerrors.ErrNotFound}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pdeckerrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", pdeckerrors.ErrIO, err)}
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &pdeckerrors.ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &pdeckerrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", pdeckerrors.ErrInvalid, err)}
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a config with all default values
// plus environment overrides.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, &pdeckerrors.ConfigError{Err: fmt.Errorf("%w: %v", pdeckerrors.ErrInvalid, err)}
		}
		return cfg, nil
	}

	return Load(configPath)
}

// LoadFrom loads path when it is non-empty and falls back to LoadWithDefaults otherwise.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	return LoadWithDefaults()
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: PDECK_<SECTION>_<FIELD>
//
// Examples:
// - PDECK_REMOTE_BASE_URL overrides [remote].base_url
// - PDECK_LOG_LEVEL overrides [log].level
//
// Boolean fields: use "true"/"false" strings
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	// Remote section
	applyString("PDECK_REMOTE_BASE_URL", &c.Remote.BaseURL)
	applyString("PDECK_REMOTE_TIMEOUT", &c.Remote.Timeout)
	applyString("PDECK_REMOTE_USER_AGENT", &c.Remote.UserAgent)

	// TUI section
	applyBool("PDECK_TUI_ENABLED", &c.TUI.Enabled)
	applyString("PDECK_TUI_THEME", &c.TUI.Theme)
	applyBool("PDECK_TUI_SHOW_HELP", &c.TUI.ShowHelp)
	applyBool("PDECK_TUI_RENDER_MARKDOWN", &c.TUI.RenderMarkdown)

	// Log section
	applyString("PDECK_LOG_LEVEL", &c.Log.Level)
	applyString("PDECK_LOG_FORMAT", &c.Log.Format)
	applyString("PDECK_LOG_FILE", &c.Log.File)
}

// expandPath expands ~ to the home directory in the log file path.
func expandPath(c *Config) {
	c.Log.File = ExpandHome(c.Log.File)
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
}
