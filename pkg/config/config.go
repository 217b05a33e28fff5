// Package config resolves the server configuration from an optional YAML file
// and the process environment. A Config is loaded once at startup and treated
// as an immutable value afterwards; callers pass it explicitly to the
// components that need it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consumed by Load.
const (
	EnvAPIKey                = "OPENROUTER_API_KEY"
	EnvBaseURL               = "OPENROUTER_BASE_URL"
	EnvDefaultTextModel      = "DEFAULT_TEXT_MODEL"
	EnvDefaultImageModel     = "DEFAULT_IMAGE_MODEL"
	EnvDefaultCodeModel      = "DEFAULT_CODE_MODEL"
	EnvDefaultVisionModel    = "DEFAULT_VISION_MODEL"
	EnvDefaultEmbeddingModel = "DEFAULT_EMBEDDING_MODEL"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
	DefaultCatalogTTL  = time.Hour
	DefaultCatalogURL  = "/models"
	DefaultReferer     = "https://github.com/germanamz/openrouter-mcp"
	DefaultTitle       = "OpenRouter MCP"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("config: " + EnvAPIKey + " is not set (get a key at https://openrouter.ai/keys)")

// Kind names a default-model slot.
type Kind string

// Default-model slots.
const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindCode      Kind = "code"
	KindVision    Kind = "vision"
	KindEmbedding Kind = "embedding"
)

// envVars maps each slot to the environment variable that fills it.
var envVars = map[Kind]string{
	KindText:      EnvDefaultTextModel,
	KindImage:     EnvDefaultImageModel,
	KindCode:      EnvDefaultCodeModel,
	KindVision:    EnvDefaultVisionModel,
	KindEmbedding: EnvDefaultEmbeddingModel,
}

// Config is the top-level server configuration.
type Config struct {
	APIKey      string         `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	BaseURL     string         `yaml:"base_url"`
	Timeout     string         `yaml:"timeout"`      // Per-attempt request timeout as a duration string.
	ToolTimeout string         `yaml:"tool_timeout"` // Bound on a whole tool call, retries included (empty = none).
	Defaults    DefaultsConfig `yaml:"defaults"`
	Retry       RetryConfig    `yaml:"retry"`
	Catalog     CatalogConfig  `yaml:"catalog"`
	Referer     string         `yaml:"http_referer"`
	Title       string         `yaml:"app_title"`
	LogLevel    string         `yaml:"log_level"`
}

// DefaultsConfig holds the per-capability default model identifiers.
type DefaultsConfig struct {
	Text      string `yaml:"text"`
	Image     string `yaml:"image"`
	Code      string `yaml:"code"`
	Vision    string `yaml:"vision"`
	Embedding string `yaml:"embedding"`
}

// RetryConfig controls the upstream retry policy.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"` // Total attempts including the first (default 3).
	BaseDelay   string `yaml:"base_delay"`   // Initial backoff delay (default "500ms").
	MaxDelay    string `yaml:"max_delay"`    // Backoff ceiling (default "30s").
}

// CatalogConfig controls the in-memory model catalog cache.
type CatalogConfig struct {
	Disabled bool   `yaml:"disabled"`
	TTL      string `yaml:"ttl"` // "0" keeps the catalog for the process lifetime.
	URL      string `yaml:"url"` // Path under the base URL or an absolute URL (default "/models").
}

// Load reads the YAML file at path (if any) and overlays the environment.
// An empty path or a missing file yields a configuration built from the
// environment alone. Environment variables referenced as ${VAR} or $VAR in
// the YAML are expanded before parsing.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: load: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return cfg, nil
}

// applyEnv overlays non-empty environment variables onto the file values.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	overlay(&c.APIKey, EnvAPIKey)
	overlay(&c.BaseURL, EnvBaseURL)
	overlay(&c.Defaults.Text, EnvDefaultTextModel)
	overlay(&c.Defaults.Image, EnvDefaultImageModel)
	overlay(&c.Defaults.Code, EnvDefaultCodeModel)
	overlay(&c.Defaults.Vision, EnvDefaultVisionModel)
	overlay(&c.Defaults.Embedding, EnvDefaultEmbeddingModel)
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Referer == "" {
		c.Referer = DefaultReferer
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Catalog.URL == "" {
		c.Catalog.URL = DefaultCatalogURL
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("config: retry.max_attempts must not be negative, got %d", c.Retry.MaxAttempts)
	}

	for name, val := range map[string]string{
		"timeout":          c.Timeout,
		"tool_timeout":     c.ToolTimeout,
		"retry.base_delay": c.Retry.BaseDelay,
		"retry.max_delay":  c.Retry.MaxDelay,
		"catalog.ttl":      c.Catalog.TTL,
	} {
		if _, err := parseDuration(val, 0); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// DefaultFor returns the default model configured for kind. The bool is false
// when the slot is unset or kind is unknown.
func (c Config) DefaultFor(kind Kind) (string, bool) {
	var v string

	switch kind {
	case KindText:
		v = c.Defaults.Text
	case KindImage:
		v = c.Defaults.Image
	case KindCode:
		v = c.Defaults.Code
	case KindVision:
		v = c.Defaults.Vision
	case KindEmbedding:
		v = c.Defaults.Embedding
	}

	return v, v != ""
}

// EnvVar returns the environment variable that fills the slot for kind, or
// an empty string for unknown kinds.
func EnvVar(kind Kind) string {
	return envVars[kind]
}

// RequestTimeout returns the per-attempt upstream timeout.
func (c Config) RequestTimeout() time.Duration {
	d, _ := parseDuration(c.Timeout, DefaultTimeout)
	if d <= 0 {
		return DefaultTimeout
	}

	return d
}

// ToolCallTimeout returns the bound on a whole tool call. Zero means none.
func (c Config) ToolCallTimeout() time.Duration {
	d, _ := parseDuration(c.ToolTimeout, 0)
	return d
}

// BaseDelay returns the initial retry backoff.
func (c Config) BaseDelay() time.Duration {
	d, _ := parseDuration(c.Retry.BaseDelay, DefaultBaseDelay)
	return d
}

// MaxDelay returns the retry backoff ceiling.
func (c Config) MaxDelay() time.Duration {
	d, _ := parseDuration(c.Retry.MaxDelay, DefaultMaxDelay)
	return d
}

// CatalogTTL returns how long the model catalog stays cached. Zero means for
// the process lifetime.
func (c Config) CatalogTTL() time.Duration {
	d, _ := parseDuration(c.Catalog.TTL, DefaultCatalogTTL)
	return d
}

// Level returns the configured slog level (info when unset).
func (c Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseDuration(val string, fallback time.Duration) (time.Duration, error) {
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback, err
	}
	if d < 0 {
		return fallback, fmt.Errorf("negative duration %q", val)
	}

	return d, nil
}

func parseLevel(val string) (slog.Level, error) {
	if val == "" {
		return slog.LevelInfo, nil
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(val)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level: %w", err)
	}

	return l, nil
}
