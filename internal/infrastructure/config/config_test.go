package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Logging.File)

	// Browser config
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Browser.Stealth)
	assert.Equal(t, 30*time.Second, cfg.Browser.HomeTimeout)
	assert.Equal(t, 60*time.Second, cfg.Browser.TargetTimeout)

	// Token config
	assert.Equal(t, "https://www.bytick.com", cfg.Token.BaseURL)
	assert.Equal(t, ".bytick.com", cfg.Token.CookieDomain)
	assert.Equal(t, int64(138736), cfg.Token.DefaultAwardID)

	// Breaker config
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)

	require.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"BROWSER_HEADLESS":       "false",
		"BROWSER_STEALTH":        "true",
		"BROWSER_EXTRA_FLAGS":    "--lang=en-US,--mute-audio",
		"BROWSER_HOME_TIMEOUT":   "45s",
		"TOKEN_BASE_URL":         "https://www.example.com",
		"TOKEN_DEFAULT_AWARD_ID": "42",
		"BREAKER_ENABLED":        "false",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, []string{"--lang=en-US", "--mute-audio"}, cfg.Browser.ExtraFlags)
	assert.Equal(t, 45*time.Second, cfg.Browser.HomeTimeout)

	assert.Equal(t, "https://www.example.com", cfg.Token.BaseURL)
	assert.Equal(t, int64(42), cfg.Token.DefaultAwardID)

	assert.False(t, cfg.Breaker.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, ".bytick.com", cfg.Token.CookieDomain)
	assert.Equal(t, 60*time.Second, cfg.Browser.TargetTimeout)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "4000"
browser:
  stealth: true
  extra_flags:
    - --lang=en-US
token:
  cookie_domain: .example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("file values override defaults", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", path)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "4000", cfg.Server.Port)
		assert.True(t, cfg.Browser.Stealth)
		assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser.ExtraFlags)
		assert.Equal(t, ".example.com", cfg.Token.CookieDomain)

		// Untouched sections keep defaults
		assert.Equal(t, "https://www.bytick.com", cfg.Token.BaseURL)
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("PORT", "5000")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "5000", cfg.Server.Port)
		assert.Equal(t, ".example.com", cfg.Token.CookieDomain)
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: true,
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Token.BaseURL = "/x-api" },
			wantErr: true,
		},
		{
			name:    "empty cookie domain",
			mutate:  func(c *Config) { c.Token.CookieDomain = "" },
			wantErr: true,
		},
		{
			name:    "zero navigation timeout",
			mutate:  func(c *Config) { c.Browser.TargetTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("BROWSER_HOME_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)

	// LoadOrDefault falls back instead of failing
	cfg := LoadOrDefault()
	assert.Equal(t, 30*time.Second, cfg.Browser.HomeTimeout)
}
