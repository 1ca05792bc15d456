package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LogConfig     `yaml:"logging"`
	Browser BrowserConfig `yaml:"browser"`
	Token   TokenConfig   `yaml:"token"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" yaml:"port"`
	Host            string        `envconfig:"HOST" yaml:"host"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
	File        string `envconfig:"LOG_FILE" yaml:"file"`
	MaxSizeMB   int    `envconfig:"LOG_MAX_SIZE_MB" yaml:"max_size_mb"`
	MaxBackups  int    `envconfig:"LOG_MAX_BACKUPS" yaml:"max_backups"`
	MaxAgeDays  int    `envconfig:"LOG_MAX_AGE_DAYS" yaml:"max_age_days"`
}

// BrowserConfig holds headless browser launch and navigation settings.
type BrowserConfig struct {
	Bin             string        `envconfig:"BROWSER_BIN" yaml:"bin"`
	Headless        bool          `envconfig:"BROWSER_HEADLESS" yaml:"headless"`
	Stealth         bool          `envconfig:"BROWSER_STEALTH" yaml:"stealth"`
	ExtraFlags      []string      `envconfig:"BROWSER_EXTRA_FLAGS" yaml:"extra_flags"`
	IdleWindow      time.Duration `envconfig:"BROWSER_IDLE_WINDOW" yaml:"idle_window"`
	HomeTimeout     time.Duration `envconfig:"BROWSER_HOME_TIMEOUT" yaml:"home_timeout"`
	TargetTimeout   time.Duration `envconfig:"BROWSER_TARGET_TIMEOUT" yaml:"target_timeout"`
	EvaluateTimeout time.Duration `envconfig:"BROWSER_EVAL_TIMEOUT" yaml:"evaluate_timeout"`
}

// TokenConfig describes the upstream site the token is fetched from.
type TokenConfig struct {
	BaseURL        string `envconfig:"TOKEN_BASE_URL" yaml:"base_url"`
	CookieDomain   string `envconfig:"TOKEN_COOKIE_DOMAIN" yaml:"cookie_domain"`
	DefaultAwardID int64  `envconfig:"TOKEN_DEFAULT_AWARD_ID" yaml:"default_award_id"`
}

// BreakerConfig holds the browser launch circuit breaker settings.
type BreakerConfig struct {
	Enabled     bool          `envconfig:"BREAKER_ENABLED" yaml:"enabled"`
	MaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" yaml:"max_failures"`
	OpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" yaml:"open_timeout"`
}

// Load builds configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile overlays values from a YAML file onto cfg.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if u, err := url.Parse(c.Token.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid token base url %q", c.Token.BaseURL))
	}
	if c.Token.CookieDomain == "" {
		errs = append(errs, errors.New("token cookie domain is required"))
	}
	if c.Browser.HomeTimeout <= 0 || c.Browser.TargetTimeout <= 0 || c.Browser.EvaluateTimeout <= 0 {
		errs = append(errs, errors.New("browser timeouts must be positive"))
	}

	return errors.Join(errs...)
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			MaxSizeMB:   100,
			MaxBackups:  5,
			MaxAgeDays:  30,
		},
		Browser: BrowserConfig{
			Headless:        true,
			IdleWindow:      500 * time.Millisecond,
			HomeTimeout:     30 * time.Second,
			TargetTimeout:   60 * time.Second,
			EvaluateTimeout: 60 * time.Second,
		},
		Token: TokenConfig{
			BaseURL:        "https://www.bytick.com",
			CookieDomain:   ".bytick.com",
			DefaultAwardID: 138736,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
	}
}
