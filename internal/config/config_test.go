package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHARSHEET_STORE", "")
	t.Setenv("CHARSHEET_OWNER", "owner-1")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "owner-1", cfg.OwnerID)
	assert.Equal(t, 750*time.Millisecond, cfg.Tabs.SaveDebounce)
	assert.Equal(t, 50, cfg.Tabs.RollHistorySize)
	assert.Equal(t, 16<<20, cfg.Tabs.MaxPortraitBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Discord.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHARSHEET_STORE", " SQLite ")
	t.Setenv("CHARSHEET_OWNER", "owner-1")
	t.Setenv("SQLITE_PATH", "/tmp/sheets.db")
	t.Setenv("SAVE_DEBOUNCE", "2s")
	t.Setenv("ROLL_HISTORY_SIZE", "200")
	t.Setenv("LOG_DEVELOPMENT", "true")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_CHANNEL_ID", "123")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/sheets.db", cfg.SQLite.Path)
	assert.Equal(t, 2*time.Second, cfg.Tabs.SaveDebounce)
	assert.Equal(t, 200, cfg.Tabs.RollHistorySize)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.Discord.Enabled())
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CHARSHEET_OWNER", "owner-1")
	t.Setenv("SAVE_DEBOUNCE", "soon")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:   StoreMemory,
			OwnerID: "owner-1",
			Tabs: TabsConfig{
				SaveDebounce:     time.Second,
				RollHistorySize:  10,
				MaxPortraitBytes: 1024,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory store", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "postgres" }, wantErr: "unknown CHARSHEET_STORE"},
		{name: "redis without url", mutate: func(c *Config) { c.Store = StoreRedis }, wantErr: "REDIS_URL"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store = StoreSQLite }, wantErr: "SQLITE_PATH"},
		{name: "missing owner", mutate: func(c *Config) { c.OwnerID = "" }, wantErr: "CHARSHEET_OWNER"},
		{name: "zero debounce", mutate: func(c *Config) { c.Tabs.SaveDebounce = 0 }, wantErr: "SAVE_DEBOUNCE"},
		{name: "zero history", mutate: func(c *Config) { c.Tabs.RollHistorySize = 0 }, wantErr: "ROLL_HISTORY_SIZE"},
		{name: "zero portrait limit", mutate: func(c *Config) { c.Tabs.MaxPortraitBytes = 0 }, wantErr: "MAX_PORTRAIT_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
