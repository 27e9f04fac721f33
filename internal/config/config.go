// Package config reads process configuration from the environment
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store kinds
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Store   string `env:"CHARSHEET_STORE" envDefault:"redis"`
	OwnerID string `env:"CHARSHEET_OWNER"`

	Redis   RedisConfig
	SQLite  SQLiteConfig
	Tabs    TabsConfig
	Log     LogConfig
	Discord DiscordConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

// SQLiteConfig holds the location of the SQLite database
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"charsheet.db"`
}

// TabsConfig tunes the tab manager
type TabsConfig struct {
	SaveDebounce     time.Duration `env:"SAVE_DEBOUNCE" envDefault:"750ms"`
	RollHistorySize  int           `env:"ROLL_HISTORY_SIZE" envDefault:"50"`
	MaxPortraitBytes int           `env:"MAX_PORTRAIT_BYTES" envDefault:"16777216"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT"`
}

// DiscordConfig holds the optional notification channel. Both fields must be
// set for notifications to be posted.
type DiscordConfig struct {
	Token     string `env:"DISCORD_TOKEN"`
	ChannelID string `env:"DISCORD_CHANNEL_ID"`
}

// Enabled reports whether Discord notifications are configured
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can build a working manager
func (c *Config) Validate() error {
	switch c.Store {
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when CHARSHEET_STORE is %s", StoreRedis)
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required when CHARSHEET_STORE is %s", StoreSQLite)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown CHARSHEET_STORE %q (want redis, sqlite or memory)", c.Store)
	}

	if c.OwnerID == "" {
		return fmt.Errorf("CHARSHEET_OWNER is required")
	}
	if c.Tabs.SaveDebounce <= 0 {
		return fmt.Errorf("SAVE_DEBOUNCE must be positive, got %s", c.Tabs.SaveDebounce)
	}
	if c.Tabs.RollHistorySize <= 0 {
		return fmt.Errorf("ROLL_HISTORY_SIZE must be positive, got %d", c.Tabs.RollHistorySize)
	}
	if c.Tabs.MaxPortraitBytes <= 0 {
		return fmt.Errorf("MAX_PORTRAIT_BYTES must be positive, got %d", c.Tabs.MaxPortraitBytes)
	}
	return nil
}
