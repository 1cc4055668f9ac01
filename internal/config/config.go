package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/rewards"
)

// Config holds the engine's runtime configuration.
type Config struct {
	// Driver selects the store backend. Values: "sqlite", "postgres".
	Driver string

	// DSN is the database path (sqlite) or connection string (postgres).
	// Empty means the default sqlite path.
	DSN string

	// Timezone is the server's reference timezone. Every calendar-day
	// decision (streaks, daily bonus) is made in this zone, never the
	// client's. Default: "UTC".
	Timezone string

	// DailyBonus is paid once per user per reference-zone day.
	DailyBonus rewards.Amount

	// NotifyTimeout is how long a reward notification stays on screen
	// before it is auto-dismissed. Default: 4s.
	NotifyTimeout time.Duration

	// LogMode is "dev" or "prod".
	LogMode string

	// HTTPAddr is the listen address of the serve command.
	HTTPAddr string

	Retry rewards.RetryConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        "sqlite",
		Timezone:      "UTC",
		DailyBonus:    rewards.Amount{XP: 10, Coins: 5},
		NotifyTimeout: 4 * time.Second,
		LogMode:       "prod",
		HTTPAddr:      ":8080",
		Retry:         rewards.DefaultRetryConfig(),
	}
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the real environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Config from TRAILQUEST_* environment variables,
// falling back to defaults for unset values.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("TRAILQUEST_DB_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("TRAILQUEST_DB"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("TRAILQUEST_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TRAILQUEST_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("TRAILQUEST_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	var err error
	if cfg.DailyBonus.XP, err = envInt("TRAILQUEST_DAILY_BONUS_XP", cfg.DailyBonus.XP); err != nil {
		return cfg, err
	}
	if cfg.DailyBonus.Coins, err = envInt("TRAILQUEST_DAILY_BONUS_COINS", cfg.DailyBonus.Coins); err != nil {
		return cfg, err
	}
	if cfg.NotifyTimeout, err = envDuration("TRAILQUEST_NOTIFY_TIMEOUT", cfg.NotifyTimeout); err != nil {
		return cfg, err
	}
	if cfg.Retry.MaxAttempts, err = envInt("TRAILQUEST_RETRY_ATTEMPTS", cfg.Retry.MaxAttempts); err != nil {
		return cfg, err
	}
	if cfg.Retry.InitialWait, err = envDuration("TRAILQUEST_RETRY_INITIAL_WAIT", cfg.Retry.InitialWait); err != nil {
		return cfg, err
	}
	if cfg.Retry.MaxWait, err = envDuration("TRAILQUEST_RETRY_MAX_WAIT", cfg.Retry.MaxWait); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	switch c.Driver {
	case "sqlite":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("TRAILQUEST_DB is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DailyBonus.XP < 0 || c.DailyBonus.Coins < 0 {
		return fmt.Errorf("daily bonus must not be negative: %+v", c.DailyBonus)
	}
	if c.NotifyTimeout < 0 {
		return fmt.Errorf("notify timeout must not be negative: %s", c.NotifyTimeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("unknown log mode: %q", c.LogMode)
	}
	return nil
}

// Location loads the reference timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Clock returns the system clock in the reference timezone.
func (c Config) Clock() (*calendar.SystemClock, error) {
	return calendar.NewSystemClock(c.Timezone)
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
