// Package config handles configuration for chatpanel.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/chatpanel/internal/models"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CHATPANEL_"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" env:"MARKDOWN_STYLE"` // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines"`
	TableWrap        bool   `json:"table_wrap"`
	InlineTableLinks bool   `json:"inline_table_links"`
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the full URL of the chat endpoint.
	Endpoint string `json:"endpoint" env:"ENDPOINT"`
	// MaxMessageLength bounds the trimmed input, in characters.
	MaxMessageLength int `json:"max_message_length" env:"MAX_MESSAGE_LENGTH"`
	// MaxRetries is the number of additional attempts after a failed send.
	MaxRetries int `json:"max_retries" env:"MAX_RETRIES"`
	// RetryDelayMs is the linear backoff base; attempt n waits base*(n+1).
	RetryDelayMs int `json:"retry_delay_ms" env:"RETRY_DELAY_MS"`
	// RequestTimeoutSeconds bounds a single attempt.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	// Verbose switches the log level to debug.
	Verbose bool `json:"verbose" env:"VERBOSE"`
	// LogFile receives logs while the TUI owns the terminal.
	LogFile         string         `json:"log_file,omitempty" env:"LOG_FILE"`
	CopyToClipboard bool           `json:"copy_to_clipboard" env:"COPY_TO_CLIPBOARD"`
	TUITheme        string         `json:"tui_theme,omitempty" env:"TUI_THEME"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:              models.DefaultEndpoint,
		MaxMessageLength:      models.DefaultMaxMessageLength,
		MaxRetries:            models.DefaultMaxRetries,
		RetryDelayMs:          models.DefaultRetryDelayMs,
		RequestTimeoutSeconds: 30,
		Verbose:               false,
		CopyToClipboard:       false,
		TUITheme:              "tokyonight",
		Markdown:              DefaultMarkdownConfig(),
	}
}

// RetryDelay returns the backoff base as a duration
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// RequestTimeout returns the per-attempt timeout as a duration
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("max_message_length must be positive, got %d", c.MaxMessageLength)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryDelayMs < 0 {
		return fmt.Errorf("retry_delay_ms must not be negative, got %d", c.RetryDelayMs)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an http(s) URL, got %q", c.Endpoint)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatpanel"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file path, defaulting to chatpanel.log in the
// config directory
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chatpanel.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides
func LoadConfig() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadFile loads the configuration file without environment overrides.
// A missing file yields the defaults.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays CHATPANEL_* environment variables onto cfg.
// Unset variables leave the existing values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

type setter func(cfg *Config, value string) error

var setters = map[string]setter{
	"endpoint": func(cfg *Config, v string) error {
		cfg.Endpoint = v
		return nil
	},
	"max_message_length":      intSetter(func(cfg *Config, n int) { cfg.MaxMessageLength = n }),
	"max_retries":             intSetter(func(cfg *Config, n int) { cfg.MaxRetries = n }),
	"retry_delay_ms":          intSetter(func(cfg *Config, n int) { cfg.RetryDelayMs = n }),
	"request_timeout_seconds": intSetter(func(cfg *Config, n int) { cfg.RequestTimeoutSeconds = n }),
	"verbose":                 boolSetter(func(cfg *Config, b bool) { cfg.Verbose = b }),
	"copy_to_clipboard":       boolSetter(func(cfg *Config, b bool) { cfg.CopyToClipboard = b }),
	"log_file": func(cfg *Config, v string) error {
		cfg.LogFile = v
		return nil
	},
	"tui_theme": func(cfg *Config, v string) error {
		cfg.TUITheme = v
		return nil
	},
	"markdown.style": func(cfg *Config, v string) error {
		cfg.Markdown.Style = v
		return nil
	},
}

func intSetter(apply func(*Config, int)) setter {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		apply(cfg, n)
		return nil
	}
}

func boolSetter(apply func(*Config, bool)) setter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(cfg, b)
		return nil
	}
}

// Set assigns value to the named key and validates the result
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (available: %s)", key, strings.Join(Keys(), ", "))
	}

	updated := *c
	if err := set(&updated, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*c = updated
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
