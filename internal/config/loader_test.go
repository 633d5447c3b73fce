package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// TestDetectConfigPath_XDG tests that XDG_CONFIG_HOME is honoured.
func TestDetectConfigPath_XDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if got := DetectConfigPath(); got != "" {
		t.Errorf("DetectConfigPath() = %q before the file exists, want empty", got)
	}

	configPath := filepath.Join(tmpDir, "pdeck", "config.toml")
	if err := Write(configPath, DefaultConfig()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if got := DetectConfigPath(); got != configPath {
		t.Errorf("DetectConfigPath() = %q, want %q", got, configPath)
	}
}

// TestLoad_ValidConfig tests loading a valid config file.
func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[remote]
base_url = "https://prompts.example.com"
timeout = "5s"

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Remote.BaseURL != "https://prompts.example.com" {
		t.Errorf("expected remote.base_url override, got %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Timeout != "5s" {
		t.Errorf("expected remote.timeout to be '5s', got %q", cfg.Remote.Timeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected log debug/json, got %q/%q", cfg.Log.Level, cfg.Log.Format)
	}
	// Untouched sections keep defaults
	if cfg.TUI.Theme != "dark" {
		t.Errorf("expected tui.theme default 'dark', got %q", cfg.TUI.Theme)
	}
}

// TestLoad_InvalidTOML tests that invalid TOML returns error.
func TestLoad_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[remote\nbase_url = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid TOML config, got nil")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error should mention parsing failure, got: %v", err)
	}
	if _, ok := pdeckerrors.AsConfigError(err); !ok {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

// TestLoad_Missing tests that a missing file is reported as not found.
func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !pdeckerrors.IsNotFound(err) {
		t.Errorf("Load(missing) = %v, want not found", err)
	}
}

// TestLoad_ValidationFailure tests that invalid values are rejected.
func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[tui]\ntheme = \"neon\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if !pdeckerrors.IsInvalid(err) {
		t.Errorf("Load() = %v, want invalid", err)
	}
}

// TestEnvOverrides tests PDECK_* environment variables.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("PDECK_REMOTE_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("PDECK_REMOTE_TIMEOUT", "1s")
	t.Setenv("PDECK_TUI_ENABLED", "false")
	t.Setenv("PDECK_TUI_RENDER_MARKDOWN", "no")
	t.Setenv("PDECK_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Remote.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("remote.base_url = %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Timeout != "1s" {
		t.Errorf("remote.timeout = %q", cfg.Remote.Timeout)
	}
	if cfg.TUI.Enabled {
		t.Error("tui.enabled should be false")
	}
	if cfg.TUI.RenderMarkdown {
		t.Error("tui.render_markdown should be false")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

// TestEnvOverrides_IgnoresGarbageBool tests that unknown bool strings leave the value alone.
func TestEnvOverrides_IgnoresGarbageBool(t *testing.T) {
	t.Setenv("PDECK_TUI_SHOW_HELP", "maybe")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if !cfg.TUI.ShowHelp {
		t.Error("tui.show_help should keep its default")
	}
}

// TestLoadWithDefaults_NoFile tests defaults plus overrides when no file exists.
func TestLoadWithDefaults_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PDECK_LOG_FORMAT", "json")

	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
}

// TestLoadFrom tests that an explicit path wins over detection.
func TestLoadFrom(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.toml")
	cfg := DefaultConfig()
	cfg.Remote.BaseURL = "http://custom:1234"
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got.Remote.BaseURL != "http://custom:1234" {
		t.Errorf("remote.base_url = %q", got.Remote.BaseURL)
	}

	got, err = LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom(\"\") error = %v", err)
	}
	if got.Remote.BaseURL != "http://localhost:8000" {
		t.Errorf("remote.base_url = %q, want default", got.Remote.BaseURL)
	}
}

// TestExpandHome tests tilde expansion.
func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/logs/pdeck.log"); got != filepath.Join(home, "logs", "pdeck.log") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/var/log/pdeck.log"); got != "/var/log/pdeck.log" {
		t.Errorf("ExpandHome() changed an absolute path: %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q, want %q", got, home)
	}
}
