package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the server.
type Config struct {
	Addr               string        `yaml:"addr"`
	DatabaseURL        string        `yaml:"database_url"`
	TelegramToken      string        `yaml:"telegram_token"`
	DigestTime         string        `yaml:"digest_time"` // HH:MM, empty disables
	CommitTimeout      time.Duration `yaml:"-"`
	CacheSweepInterval time.Duration `yaml:"-"`
	TMDBBaseURL        string        `yaml:"tmdb_base_url"`
	TMDBAPIKey         string        `yaml:"tmdb_api_key"`

	CommitTimeoutSeconds int `yaml:"commit_timeout_seconds"`
	CacheSweepMinutes    int `yaml:"cache_sweep_minutes"`
}

// Load reads configuration from environment variables with sane defaults.
// When LIFEBOARD_CONFIG points at a YAML file, its values fill in whatever
// the environment leaves empty.
func Load() (Config, error) {
	cfg := Config{
		Addr:                 strings.TrimSpace(os.Getenv("LIFEBOARD_ADDR")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramToken:        strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DigestTime:           strings.TrimSpace(os.Getenv("DIGEST_TIME")),
		TMDBBaseURL:          strings.TrimSpace(os.Getenv("TMDB_BASE_URL")),
		TMDBAPIKey:           strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		CommitTimeoutSeconds: parsePositiveInt(os.Getenv("COMMIT_TIMEOUT_SECONDS")),
		CacheSweepMinutes:    parsePositiveInt(os.Getenv("CACHE_SWEEP_MINUTES")),
	}

	if path := strings.TrimSpace(os.Getenv("LIFEBOARD_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "lifeboard.db"
	}
	if cfg.TMDBBaseURL == "" {
		cfg.TMDBBaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.CommitTimeoutSeconds <= 0 {
		cfg.CommitTimeoutSeconds = 10
	}
	if cfg.CacheSweepMinutes <= 0 {
		cfg.CacheSweepMinutes = 15
	}
	cfg.CommitTimeout = time.Duration(cfg.CommitTimeoutSeconds) * time.Second
	cfg.CacheSweepInterval = time.Duration(cfg.CacheSweepMinutes) * time.Minute

	if cfg.DigestTime != "" && cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("DIGEST_TIME set but TELEGRAM_TOKEN missing")
	}

	return cfg, nil
}

// applyFile merges a YAML config file into the unset fields.
func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if c.Addr == "" {
		c.Addr = file.Addr
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = file.DatabaseURL
	}
	if c.TelegramToken == "" {
		c.TelegramToken = file.TelegramToken
	}
	if c.DigestTime == "" {
		c.DigestTime = file.DigestTime
	}
	if c.TMDBBaseURL == "" {
		c.TMDBBaseURL = file.TMDBBaseURL
	}
	if c.TMDBAPIKey == "" {
		c.TMDBAPIKey = file.TMDBAPIKey
	}
	if c.CommitTimeoutSeconds <= 0 {
		c.CommitTimeoutSeconds = file.CommitTimeoutSeconds
	}
	if c.CacheSweepMinutes <= 0 {
		c.CacheSweepMinutes = file.CacheSweepMinutes
	}
	return nil
}

func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
