// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	DB      DBConfig      `mapstructure:"db"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// QueueConfig selects and tunes the job queue backend.
type QueueConfig struct {
	// Backend is "memory" or "pubsub".
	Backend      string `mapstructure:"backend"`
	Depth        int    `mapstructure:"depth"`
	ProjectID    string `mapstructure:"project_id"`
	TopicID      string `mapstructure:"topic_id"`
	Subscription string `mapstructure:"subscription"`
}

// CacheConfig selects and tunes the html page cache backend.
type CacheConfig struct {
	// Backend is "postgres", "gcs", "local", or "memory".
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
	Dir       string `mapstructure:"dir"`
}

// ScraperConfig selects the scraping engine and its knobs.
type ScraperConfig struct {
	// Engine is "static" (plain HTTP fetch) or "headless" (rendered).
	Engine        string `mapstructure:"engine"`
	UserAgent     string `mapstructure:"user_agent"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	MaxParallel   int    `mapstructure:"max_parallel"`
}

// WorkerConfig governs the processing pipeline's concurrency and rate knobs.
type WorkerConfig struct {
	Concurrency       int `mapstructure:"concurrency"`
	RateMaxStarts     int `mapstructure:"rate_max_starts"`
	RateWindowSeconds int `mapstructure:"rate_window_seconds"`
	ScrapeTimeoutSec  int `mapstructure:"scrape_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SERPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.depth", 256)
	v.SetDefault("cache.backend", "postgres")
	v.SetDefault("cache.prefix", "pages")
	v.SetDefault("cache.dir", "data/pages")
	v.SetDefault("scraper.engine", "static")
	v.SetDefault("scraper.user_agent", "serpwatch-bot/0.1")
	v.SetDefault("scraper.nav_timeout_seconds", 25)
	v.SetDefault("scraper.max_parallel", 2)
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.rate_max_starts", 100)
	v.SetDefault("worker.rate_window_seconds", 400)
	v.SetDefault("worker.scrape_timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Queue.Backend {
	case "memory":
		if c.Queue.Depth <= 0 {
			return fmt.Errorf("queue.depth must be > 0")
		}
	case "pubsub":
		if c.Queue.ProjectID == "" || c.Queue.TopicID == "" || c.Queue.Subscription == "" {
			return fmt.Errorf("queue.project_id, queue.topic_id, and queue.subscription must be set for pubsub")
		}
	default:
		return fmt.Errorf("queue.backend must be memory or pubsub, got %q", c.Queue.Backend)
	}
	switch c.Cache.Backend {
	case "postgres", "memory":
	case "gcs":
		if c.Cache.GCSBucket == "" {
			return fmt.Errorf("cache.gcs_bucket must be set for gcs cache")
		}
	case "local":
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir must be set for local cache")
		}
	default:
		return fmt.Errorf("cache.backend must be postgres, gcs, local, or memory, got %q", c.Cache.Backend)
	}
	switch c.Scraper.Engine {
	case "static":
	case "headless":
		if c.Scraper.MaxParallel <= 0 {
			return fmt.Errorf("scraper.max_parallel must be > 0 for headless engine")
		}
	default:
		return fmt.Errorf("scraper.engine must be static or headless, got %q", c.Scraper.Engine)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0")
	}
	if c.Worker.RateMaxStarts < 0 || c.Worker.RateWindowSeconds < 0 {
		return fmt.Errorf("worker rate limit settings must be >= 0")
	}
	if c.Worker.ScrapeTimeoutSec <= 0 {
		return fmt.Errorf("worker.scrape_timeout_seconds must be > 0")
	}
	return nil
}

// ScrapeTimeout converts the worker scrape timeout into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Worker.ScrapeTimeoutSec) * time.Second
}

// RateWindow converts the rate window into a duration.
func (c Config) RateWindow() time.Duration {
	return time.Duration(c.Worker.RateWindowSeconds) * time.Second
}

// NavTimeout converts the scraper navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Scraper.NavTimeoutSec) * time.Second
}
