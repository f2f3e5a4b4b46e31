package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	CacheDir          string
	LogLevel          string
	LogFormat         string
	UserAgent         string
	CommunityBaseURL  string
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	ScrapeMinInterval time.Duration
	ItemTimeout       time.Duration
	SweepInterval     time.Duration
	SweepThrottle     time.Duration
	SweepBackoff      time.Duration
	CacheMaxBytes     int64
	MaxSuggestions    int
	ContextLimit      int

	// parse errors are collected during Load and reported by Validate
	parseErrors []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", constants.DefaultPort),
		DBPath:           getEnv("DB_PATH", constants.DefaultDBPath),
		CacheDir:         getEnv("CACHE_DIR", constants.DefaultCacheDir),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		UserAgent:        getEnv("USER_AGENT", constants.DefaultUserAgent),
		CommunityBaseURL: getEnv("COMMUNITY_BASE_URL", constants.DefaultCommunityBaseURL),
		LLMBaseURL:       getEnv("LLM_BASE_URL", constants.DefaultLLMBaseURL),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", constants.DefaultLLMModel),
	}

	cfg.ScrapeMinInterval = cfg.getDuration("SCRAPE_MIN_INTERVAL", constants.DefaultScrapeMinInterval)
	cfg.ItemTimeout = cfg.getDuration("ITEM_TIMEOUT", constants.DefaultItemTimeout)
	cfg.SweepInterval = cfg.getDuration("SWEEP_INTERVAL", constants.DefaultSweepInterval)
	cfg.SweepThrottle = cfg.getDuration("SWEEP_THROTTLE", constants.DefaultSweepThrottle)
	cfg.SweepBackoff = cfg.getDuration("SWEEP_BACKOFF", constants.DefaultSweepBackoff)
	cfg.CacheMaxBytes = int64(cfg.getInt("CACHE_MAX_BYTES", constants.DefaultCacheMaxBytes))
	cfg.MaxSuggestions = cfg.getInt("LLM_MAX_SUGGESTIONS", constants.DefaultMaxSuggestions)
	cfg.ContextLimit = cfg.getInt("LLM_CONTEXT_LIMIT", constants.DefaultContextLimit)

	return cfg
}

// LLMEnabled reports whether the recommendation pipeline can reach a model.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.CacheDir == "" {
		errors = append(errors, "CACHE_DIR cannot be empty")
	}

	for name, raw := range map[string]string{
		"COMMUNITY_BASE_URL": c.CommunityBaseURL,
		"LLM_BASE_URL":       c.LLMBaseURL,
	} {
		if raw == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s is not a valid http(s) URL: %s", name, raw))
		}
	}

	if c.LLMEnabled() && c.LLMModel == "" {
		errors = append(errors, "LLM_MODEL cannot be empty when LLM_API_KEY is set")
	}

	if c.MaxSuggestions < 1 || c.MaxSuggestions > 50 {
		errors = append(errors, fmt.Sprintf("LLM_MAX_SUGGESTIONS must be between 1 and 50, got: %d", c.MaxSuggestions))
	}
	if c.ContextLimit < 0 {
		errors = append(errors, fmt.Sprintf("LLM_CONTEXT_LIMIT cannot be negative, got: %d", c.ContextLimit))
	}
	if c.CacheMaxBytes <= 0 {
		errors = append(errors, fmt.Sprintf("CACHE_MAX_BYTES must be positive, got: %d", c.CacheMaxBytes))
	}
	if c.SweepInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("SWEEP_INTERVAL must be at least 1m, got: %s", c.SweepInterval))
	}
	if c.SweepThrottle < 0 || c.ScrapeMinInterval < 0 {
		errors = append(errors, "SWEEP_THROTTLE and SCRAPE_MIN_INTERVAL cannot be negative")
	}
	if c.ItemTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ITEM_TIMEOUT must be positive, got: %s", c.ItemTimeout))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (c *Config) getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a duration (e.g. 30s, 6h), got: %s", key, raw))
		return fallback
	}
	return d
}

func (c *Config) getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.parseErrors = append(c.parseErrors, fmt.Sprintf("%s must be a whole number, got: %s", key, raw))
		return fallback
	}
	return n
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
