// Package config provides configuration loading and validation for the admin console.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the console configuration. Values come from the environment and
// optionally from a JSON file; environment values win.
type Config struct {
	// Remote API
	APIURL     string `json:"api_url,omitempty"`     // Base URL of the egresados API
	APITimeout string `json:"api_timeout,omitempty"` // Per-request timeout, e.g. "15s"

	// HTTP
	Port          int    `json:"port,omitempty"`
	SessionSecret string `json:"session_secret,omitempty"` // Signs the session cookie
	CookieSecure  bool   `json:"cookie_secure,omitempty"`

	// Backing services (optional)
	RedisURL    string `json:"redis_url,omitempty"`    // Token store; in-memory when empty
	DatabaseURL string `json:"database_url,omitempty"` // Advertisement store; in-memory when empty

	// Presentation
	PageSize int `json:"page_size,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogPretty bool   `json:"log_pretty,omitempty"`
}

// minSessionSecretLen is the minimum length of SESSION_SECRET in bytes.
const minSessionSecretLen = 32

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		APITimeout: "15s",
		Port:       8080,
		PageSize:   10,
		LogLevel:   "info",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables.
// Unset variables leave the corresponding field zero.
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:        os.Getenv("API_URL"),
		APITimeout:    os.Getenv("API_TIMEOUT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		RedisURL:      os.Getenv("REDIS_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
	}

	var err error
	if cfg.Port, err = envInt("PORT"); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = envInt("PAGE_SIZE"); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = envBool("COOKIE_SECURE"); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = envBool("LOG_PRETTY"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// NewConfig builds the effective configuration with Resolve and validates it.
func NewConfig(path string) (*Config, error) {
	cfg, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve merges the environment, then the optional JSON file at path, then
// Defaults. The result is not validated.
func Resolve(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
		// Bools cannot be merged; a file may only switch them on.
		cfg.CookieSecure = cfg.CookieSecure || fileCfg.CookieSecure
		cfg.LogPretty = cfg.LogPretty || fileCfg.LogPretty
	}

	cfg = cfg.MergeWithDefaults(Defaults())
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := c.ValidateAPI(); err != nil {
		return err
	}

	if len(c.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("config error: SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config error: page size must be positive, got %d", c.PageSize)
	}

	return nil
}

// ValidateAPI checks only the settings needed to call the remote API. CLI commands
// that never serve HTTP use it instead of Validate.
func (c *Config) ValidateAPI() error {
	if c.APIURL == "" {
		return fmt.Errorf("config error: API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config error: API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.APITimeout != "" {
		d, err := time.ParseDuration(c.APITimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid API_TIMEOUT: %v", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: API_TIMEOUT must be positive")
		}
	}
	return nil
}

// Timeout returns the parsed API timeout, or zero when unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.APITimeout)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c Config) MergeWithDefaults(defaults Config) Config {
	result := c

	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.APITimeout == "" {
		result.APITimeout = defaults.APITimeout
	}
	if result.SessionSecret == "" {
		result.SessionSecret = defaults.SessionSecret
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PageSize == 0 {
		result.PageSize = defaults.PageSize
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", key, err)
	}
	return b, nil
}
