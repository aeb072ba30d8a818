package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	minWorkers = 1
	maxWorkers = 8
)

// Config holds all application configuration. Values come from built-in
// defaults, then an optional TOML file, then environment variables.
type Config struct {
	Port             string
	MigrationWorkers int
	LogLevel         string

	// MatchMinConfidence is the score a candidate must exceed to be accepted.
	MatchMinConfidence float64

	ProviderRateLimit float64
	ProviderRetryMax  int
	HTTPTimeout       time.Duration

	DatabasePath string

	TidalCountryCode string
	SpotifyBaseURL   string
	TidalBaseURL     string
	YouTubeBaseURL   string
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Migration struct {
		Workers       int      `toml:"workers"`
		MinConfidence *float64 `toml:"min_confidence"`
	} `toml:"migration"`
	Providers struct {
		RateLimit float64 `toml:"rate_limit"`
		RetryMax  *int    `toml:"retry_max"`
		Timeout   string  `toml:"timeout"`
	} `toml:"providers"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	Spotify struct {
		BaseURL string `toml:"base_url"`
	} `toml:"spotify"`
	Tidal struct {
		BaseURL     string `toml:"base_url"`
		CountryCode string `toml:"country_code"`
	} `toml:"tidal"`
	YouTube struct {
		BaseURL string `toml:"base_url"`
	} `toml:"youtube"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:               "8080",
		MigrationWorkers:   5,
		LogLevel:           "info",
		MatchMinConfidence: 0.3,
		ProviderRateLimit:  10,
		ProviderRetryMax:   3,
		HTTPTimeout:        30 * time.Second,
		DatabasePath:       ":memory:",
		TidalCountryCode:   "US",
	}
}

// Load reads configuration from a .env file (if present), the TOML file
// named by CONFIG_FILE (if set) and environment variables.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a TOML file over the defaults without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.applyFile(path); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.LogLevel, f.Log.Level)
	if f.Migration.Workers != 0 {
		c.MigrationWorkers = f.Migration.Workers
	}
	if f.Migration.MinConfidence != nil {
		c.MatchMinConfidence = *f.Migration.MinConfidence
	}
	if f.Providers.RateLimit != 0 {
		c.ProviderRateLimit = f.Providers.RateLimit
	}
	if f.Providers.RetryMax != nil {
		c.ProviderRetryMax = *f.Providers.RetryMax
	}
	if f.Providers.Timeout != "" {
		d, err := time.ParseDuration(f.Providers.Timeout)
		if err != nil {
			return fmt.Errorf("invalid providers.timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	setString(&c.DatabasePath, f.Database.Path)
	setString(&c.SpotifyBaseURL, f.Spotify.BaseURL)
	setString(&c.TidalBaseURL, f.Tidal.BaseURL)
	setString(&c.TidalCountryCode, f.Tidal.CountryCode)
	setString(&c.YouTubeBaseURL, f.YouTube.BaseURL)
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.TidalCountryCode = getEnv("TIDAL_COUNTRY_CODE", c.TidalCountryCode)
	c.SpotifyBaseURL = getEnv("SPOTIFY_BASE_URL", c.SpotifyBaseURL)
	c.TidalBaseURL = getEnv("TIDAL_BASE_URL", c.TidalBaseURL)
	c.YouTubeBaseURL = getEnv("YOUTUBE_BASE_URL", c.YouTubeBaseURL)

	var errs []error
	if v, ok := os.LookupEnv("MIGRATION_WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid MIGRATION_WORKERS %q: %w", v, err))
		} else {
			c.MigrationWorkers = n
		}
	}
	if v, ok := os.LookupEnv("MATCH_MIN_CONFIDENCE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid MATCH_MIN_CONFIDENCE %q: %w", v, err))
		} else {
			c.MatchMinConfidence = f
		}
	}
	if v, ok := os.LookupEnv("PROVIDER_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PROVIDER_RATE_LIMIT %q: %w", v, err))
		} else {
			c.ProviderRateLimit = f
		}
	}
	if v, ok := os.LookupEnv("PROVIDER_RETRY_MAX"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid PROVIDER_RETRY_MAX %q: %w", v, err))
		} else {
			c.ProviderRetryMax = n
		}
	}
	if v, ok := os.LookupEnv("HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err))
		} else {
			c.HTTPTimeout = d
		}
	}
	return errors.Join(errs...)
}

// validate clamps the worker count and rejects values no component can use.
func (c *Config) validate() error {
	c.MigrationWorkers = max(minWorkers, min(c.MigrationWorkers, maxWorkers))

	if c.MatchMinConfidence < 0 || c.MatchMinConfidence >= 1 {
		return fmt.Errorf("match min confidence must be in [0, 1), got %v", c.MatchMinConfidence)
	}
	if c.ProviderRetryMax < 0 {
		return fmt.Errorf("provider retry max must not be negative, got %d", c.ProviderRetryMax)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
