package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"api_url": "https://api.egresados.test",
		"port": 9090,
		"page_size": 25,
		"log_pretty": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.egresados.test", cfg.APIURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.LogPretty)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{APIURL: "https://api.egresados.test", SessionSecret: testSecret}
		return cfg.MergeWithDefaults(Defaults())
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		errPart string
	}{
		{"valid", func(_ *Config) {}, ""},
		{"missing api url", func(c *Config) { c.APIURL = "" }, "API_URL is required"},
		{"relative api url", func(c *Config) { c.APIURL = "/api" }, "absolute http(s) URL"},
		{"ftp api url", func(c *Config) { c.APIURL = "ftp://files.test" }, "absolute http(s) URL"},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, "SESSION_SECRET"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port out of range"},
		{"zero page size", func(c *Config) { c.PageSize = -1 }, "page size"},
		{"bad timeout", func(c *Config) { c.APITimeout = "soon" }, "invalid API_TIMEOUT"},
		{"negative timeout", func(c *Config) { c.APITimeout = "-1s" }, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errPart == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{APIURL: "https://a.test", Port: 9000}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "https://a.test", merged.APIURL)
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, 10, merged.PageSize)
	assert.Equal(t, "15s", merged.APITimeout)
	assert.Equal(t, "info", merged.LogLevel)
	assert.Equal(t, 15*time.Second, merged.Timeout())
}

func TestNewConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("API_URL", "https://env.egresados.test")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("PORT", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("LOG_PRETTY", "")

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"api_url":"https://file.test","page_size":50,"cookie_secure":true}`), 0644))

	cfg, err := NewConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "https://env.egresados.test", cfg.APIURL)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.CookieSecure)
}

func TestNewConfig_InvalidEnvInt(t *testing.T) {
	t.Setenv("PORT", "eighty")

	cfg, err := NewConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid PORT")
}

func TestNewConfig_MissingSecret(t *testing.T) {
	t.Setenv("API_URL", "https://env.egresados.test")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("LOG_PRETTY", "")

	_, err := NewConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestResolve_SkipsValidation(t *testing.T) {
	t.Setenv("API_URL", "https://env.egresados.test")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("LOG_PRETTY", "")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "15s", cfg.APITimeout)
	assert.NoError(t, cfg.ValidateAPI())
	assert.Error(t, cfg.Validate())
}

func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing url", cfg: Config{}, wantErr: "API_URL is required"},
		{name: "relative url", cfg: Config{APIURL: "/api"}, wantErr: "absolute http(s) URL"},
		{name: "bad timeout", cfg: Config{APIURL: "https://a.test", APITimeout: "soon"}, wantErr: "invalid API_TIMEOUT"},
		{name: "negative timeout", cfg: Config{APIURL: "https://a.test", APITimeout: "-1s"}, wantErr: "must be positive"},
		{name: "ok", cfg: Config{APIURL: "https://a.test", APITimeout: "5s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateAPI()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
