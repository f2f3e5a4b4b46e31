package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

func validConfig() Config {
	return Config{
		Port:              "8080",
		DBPath:            "test.db",
		CacheDir:          "/tmp/covers",
		LogLevel:          "info",
		LogFormat:         "text",
		CommunityBaseURL:  "https://book.example.com",
		LLMBaseURL:        "http://localhost:11434/v1",
		LLMModel:          "test-model",
		ScrapeMinInterval: time.Second,
		ItemTimeout:       time.Minute,
		SweepInterval:     6 * time.Hour,
		SweepThrottle:     time.Second,
		SweepBackoff:      time.Hour,
		CacheMaxBytes:     1 << 20,
		MaxSuggestions:    5,
		ContextLimit:      10,
	}
}

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.Equal(t, constants.DefaultPort, cfg.Port)
	assert.Equal(t, constants.DefaultDBPath, cfg.DBPath)
	assert.Equal(t, constants.DefaultSweepInterval, cfg.SweepInterval)
	assert.EqualValues(t, constants.DefaultCacheMaxBytes, cfg.CacheMaxBytes)
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("COMMUNITY_BASE_URL", "http://example.com:8000")
	t.Setenv("SWEEP_INTERVAL", "3h")
	t.Setenv("LLM_MAX_SUGGESTIONS", "8")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "http://example.com:8000", cfg.CommunityBaseURL)
	assert.Equal(t, 3*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 8, cfg.MaxSuggestions)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoadReportsParseErrors(t *testing.T) {
	t.Setenv("SWEEP_THROTTLE", "soon")
	t.Setenv("CACHE_MAX_BYTES", "lots")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SWEEP_THROTTLE")
	assert.Contains(t, err.Error(), "CACHE_MAX_BYTES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "invalid port - not a number", mutate: func(c *Config) { c.Port = "abc" }, wantErr: true},
		{name: "invalid port - out of range", mutate: func(c *Config) { c.Port = "99999" }, wantErr: true},
		{name: "empty port", mutate: func(c *Config) { c.Port = "" }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "empty cache dir", mutate: func(c *Config) { c.CacheDir = "" }, wantErr: true},
		{name: "community url without scheme", mutate: func(c *Config) { c.CommunityBaseURL = "book.example.com" }, wantErr: true},
		{name: "llm url ftp", mutate: func(c *Config) { c.LLMBaseURL = "ftp://models.example.com" }, wantErr: true},
		{name: "api key without model", mutate: func(c *Config) { c.LLMAPIKey = "k"; c.LLMModel = "" }, wantErr: true},
		{name: "no api key no model is fine", mutate: func(c *Config) { c.LLMModel = "" }},
		{name: "zero suggestions", mutate: func(c *Config) { c.MaxSuggestions = 0 }, wantErr: true},
		{name: "tiny sweep interval", mutate: func(c *Config) { c.SweepInterval = time.Second }, wantErr: true},
		{name: "zero cache ceiling", mutate: func(c *Config) { c.CacheMaxBytes = 0 }, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "invalid log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	assert.Equal(t, "test_value", getEnv("TEST_VAR", "default"))

	os.Unsetenv("NON_EXISTENT_VAR")
	assert.Equal(t, "default", getEnv("NON_EXISTENT_VAR", "default"))
}
