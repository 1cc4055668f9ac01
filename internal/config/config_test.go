package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/trailquest/internal/rewards"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, rewards.Amount{XP: 10, Coins: 5}, cfg.DailyBonus)
	assert.Equal(t, 4*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TRAILQUEST_DB_DRIVER", "postgres")
	t.Setenv("TRAILQUEST_DB", "postgres://localhost/trailquest")
	t.Setenv("TRAILQUEST_TIMEZONE", "Asia/Kolkata")
	t.Setenv("TRAILQUEST_DAILY_BONUS_XP", "25")
	t.Setenv("TRAILQUEST_DAILY_BONUS_COINS", "7")
	t.Setenv("TRAILQUEST_NOTIFY_TIMEOUT", "2500ms")
	t.Setenv("TRAILQUEST_LOG_MODE", "dev")
	t.Setenv("TRAILQUEST_HTTP_ADDR", ":9090")
	t.Setenv("TRAILQUEST_RETRY_ATTEMPTS", "5")
	t.Setenv("TRAILQUEST_RETRY_INITIAL_WAIT", "10ms")
	t.Setenv("TRAILQUEST_RETRY_MAX_WAIT", "200ms")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://localhost/trailquest", cfg.DSN)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, rewards.Amount{XP: 25, Coins: 7}, cfg.DailyBonus)
	assert.Equal(t, 2500*time.Millisecond, cfg.NotifyTimeout)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialWait)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.MaxWait)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_BadValues(t *testing.T) {
	t.Setenv("TRAILQUEST_DAILY_BONUS_XP", "lots")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "TRAILQUEST_DAILY_BONUS_XP")

	t.Setenv("TRAILQUEST_DAILY_BONUS_XP", "")
	t.Setenv("TRAILQUEST_NOTIFY_TIMEOUT", "soon")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "TRAILQUEST_NOTIFY_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Driver = "postgres" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"negative bonus", func(c *Config) { c.DailyBonus.XP = -1 }},
		{"negative timeout", func(c *Config) { c.NotifyTimeout = -time.Second }},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"bad log mode", func(c *Config) { c.LogMode = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRAILQUEST_TIMEZONE=Europe/Berlin\n"), 0o600))

	t.Setenv("TRAILQUEST_TIMEZONE", "")
	os.Unsetenv("TRAILQUEST_TIMEZONE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}
