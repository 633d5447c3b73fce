// Package config provides configuration management for pdeck.
//
// The configuration is stored in TOML format and supports validation
// and default values for all fields.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the top-level configuration struct for pdeck.
type Config struct {
	Remote RemoteConfig `toml:"remote"`
	TUI    TUIConfig    `toml:"tui"`
	Log    LogConfig    `toml:"log"`
}

// RemoteConfig describes how to reach the prompt collection service.
type RemoteConfig struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string `toml:"base_url"`

	// Timeout bounds each request, as a Go duration string (default: "15s").
	Timeout string `toml:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent"`
}

// TUIConfig contains terminal UI settings.
type TUIConfig struct {
	// Enabled controls whether to use the TUI (when false, falls back to CLI).
	Enabled bool `toml:"enabled"`

	// Theme selects the markdown style for the detail pane.
	// Valid values: "dark", "light", "auto".
	Theme string `toml:"theme"`

	// ShowHelp controls whether to show the help footer by default.
	ShowHelp bool `toml:"show_help"`

	// RenderMarkdown renders prompt content with glamour in the detail pane.
	RenderMarkdown bool `toml:"render_markdown"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`

	// File is an optional log file path. Empty means stderr for the CLI
	// and no logging for the TUI.
	File string `toml:"file"`
}

// DefaultUserAgent is the User-Agent sent when none is configured.
const DefaultUserAgent = "pdeck"

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   "15s",
			UserAgent: DefaultUserAgent,
		},
		TUI: TUIConfig{
			Enabled:        true,
			Theme:          "dark",
			ShowHelp:       true,
			RenderMarkdown: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
func (c *Config) Validate() error {
	// Remote section
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url cannot be empty")
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil {
		return fmt.Errorf("remote.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote.base_url must use http or https; got %q", c.Remote.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("remote.base_url must include a host; got %q", c.Remote.BaseURL)
	}
	if _, err := c.Remote.TimeoutDuration(); err != nil {
		return err
	}

	// TUI section
	validThemes := map[string]bool{
		"dark":  true,
		"light": true,
		"auto":  true,
	}
	if !validThemes[c.TUI.Theme] {
		return fmt.Errorf("tui.theme must be one of: dark, light, auto; got %q", c.TUI.Theme)
	}

	// Log section
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: text, json; got %q", c.Log.Format)
	}

	return nil
}

// TimeoutDuration parses Timeout. An empty value means no client-side timeout.
func (r RemoteConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("remote.timeout is not a valid duration: %q", r.Timeout)
	}
	if d < 0 {
		return 0, fmt.Errorf("remote.timeout must be >= 0; got %q", r.Timeout)
	}
	return d, nil
}
