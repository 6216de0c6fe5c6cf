// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles loading and validation of advisor configuration.
//
// Configuration sources, lowest to highest precedence:
//  1. built-in defaults
//  2. ~/.advisor/config.toml
//  3. environment variables (a .env file in the working directory is
//     loaded first, matching the backend's own dotenv convention)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default values.
const (
	DefaultAPIBaseURL   = "http://localhost:8000/api"
	DefaultTimeoutSecs  = 60
	DefaultHistoryLimit = 50
	DefaultWordWrap     = 80
	DefaultTheme        = "auto"

	configFileName     = "config.toml"
	sessionFileName    = "session.json"
	defaultLogFileName = "advisor.log"

	historyLimitMax = 200
	wordWrapMin     = 40
	wordWrapMax     = 200
)

// Config is the advisor client configuration.
type Config struct {
	API  APIConfig  `toml:"api"`
	Auth AuthConfig `toml:"auth"`
	Chat ChatConfig `toml:"chat"`
	UI   UIConfig   `toml:"ui"`

	// LogFile receives application logs while the full-screen UI owns
	// the terminal. Empty means the default under the config dir.
	LogFile string `toml:"log_file"`
	Debug   bool   `toml:"debug"`
}

// APIConfig configures the advising backend client.
type APIConfig struct {
	BaseURL     string `toml:"base_url"`
	TimeoutSecs int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// AuthConfig configures the external auth provider.
type AuthConfig struct {
	// URL is the GoTrue-compatible auth endpoint, e.g.
	// https://<project>.supabase.co/auth/v1
	URL string `toml:"url"`

	// AnonKey is the provider's public API key.
	AnonKey string `toml:"anon_key"`

	// SessionFile overrides where the provider caches its session.
	SessionFile string `toml:"session_file"`
}

// ChatConfig configures chat behavior.
type ChatConfig struct {
	// HistoryLimit is how many persisted messages to preload when the
	// dashboard opens (0 disables the preload).
	HistoryLimit int `toml:"history_limit"`
}

// UIConfig configures rendering.
type UIConfig struct {
	// WordWrap is the markdown rendering width.
	WordWrap int `toml:"word_wrap"`

	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
}

// DefaultConfig returns a config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     DefaultAPIBaseURL,
			TimeoutSecs: DefaultTimeoutSecs,
		},
		Chat: ChatConfig{HistoryLimit: DefaultHistoryLimit},
		UI: UIConfig{
			WordWrap: DefaultWordWrap,
			Theme:    DefaultTheme,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the advisor configuration directory (~/.advisor).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".advisor"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureConfigDir creates the configuration directory if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// SessionFilePath returns the effective session cache path.
func (c *Config) SessionFilePath() string {
	if c.Auth.SessionFile != "" {
		return c.Auth.SessionFile
	}
	dir, err := ConfigDir()
	if err != nil {
		return sessionFileName
	}
	return filepath.Join(dir, sessionFileName)
}

// LogFilePath returns the effective log file path.
func (c *Config) LogFilePath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	dir, err := ConfigDir()
	if err != nil {
		return defaultLogFileName
	}
	return filepath.Join(dir, defaultLogFileName)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file at path (or the default location when path
// is empty), applies environment overrides, and validates. A missing
// file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	// Matches the backend's load_dotenv: a .env in the working
	// directory feeds the environment before overrides are read.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays ADVISOR_* environment variables, with
// SUPABASE_URL / SUPABASE_ANON_KEY accepted as fallbacks for the auth
// settings since the backend's own .env uses those names.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ADVISOR_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ADVISOR_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("ADVISOR_AUTH_URL"); v != "" {
		c.Auth.URL = v
	} else if v := os.Getenv("SUPABASE_URL"); v != "" && c.Auth.URL == "" {
		c.Auth.URL = strings.TrimSuffix(v, "/") + "/auth/v1"
	}
	if v := os.Getenv("ADVISOR_AUTH_ANON_KEY"); v != "" {
		c.Auth.AnonKey = v
	} else if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" && c.Auth.AnonKey == "" {
		c.Auth.AnonKey = v
	}
	if v := os.Getenv("ADVISOR_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("ADVISOR_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("ADVISOR_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		c.Debug = true
	}
}

// SetDefaults fills zero values left by partial config files.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = DefaultWordWrap
	}
	if c.UI.Theme == "" {
		c.UI.Theme = DefaultTheme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all invalid fields so users can fix the
// whole file in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks value ranges. Auth settings are optional: without them
// the client still runs in simple mode.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, ValidationError{"api.base_url", "must be an http(s) URL"})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{"api.timeout_seconds", "must be between 1 and 600"})
	}
	if c.Auth.URL != "" && !strings.HasPrefix(c.Auth.URL, "http://") && !strings.HasPrefix(c.Auth.URL, "https://") {
		errs = append(errs, ValidationError{"auth.url", "must be an http(s) URL"})
	}
	if c.Chat.HistoryLimit < 0 || c.Chat.HistoryLimit > historyLimitMax {
		errs = append(errs, ValidationError{"chat.history_limit", fmt.Sprintf("must be between 0 and %d", historyLimitMax)})
	}
	if c.UI.WordWrap < wordWrapMin || c.UI.WordWrap > wordWrapMax {
		errs = append(errs, ValidationError{"ui.word_wrap", fmt.Sprintf("must be between %d and %d", wordWrapMin, wordWrapMax)})
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", `must be "auto", "dark", or "light"`})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// HasAuth reports whether an auth provider is configured. Without one
// the full-screen client cannot sign in, only simple mode works.
func (c *Config) HasAuth() bool {
	return c.Auth.URL != "" && c.Auth.AnonKey != ""
}
