package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/config"
	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/logger"
	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/store"
)

// runtime is everything a command needs, opened from config and flags.
type runtime struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	queue *notify.Queue
	eng   *engine.Engine
}

// openRuntime loads .env and TRAILQUEST_* settings, applies flag
// overrides, then opens the store and builds the engine.
func openRuntime(cmd *cobra.Command) (*runtime, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.Driver = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DSN = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := resolveDSN(&cfg); err != nil {
		return nil, err
	}

	log := logger.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || cmd.Name() == "serve" {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	clock, err := resolveClock(cmd, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Driver, cfg.DSN, store.WithLogger(log.With("component", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	q := notify.NewQueue(cfg.NotifyTimeout)
	eng := engine.New(st, clock,
		engine.WithQueue(q),
		engine.WithLogger(log.With("component", "engine")),
		engine.WithDailyBonus(cfg.DailyBonus),
		engine.WithRetry(cfg.Retry),
	)
	return &runtime{cfg: cfg, log: log, store: st, queue: q, eng: eng}, nil
}

func (rt *runtime) Close() {
	rt.queue.Close()
	if err := rt.store.Close(); err != nil {
		rt.log.Warn("close store", "error", err)
	}
	rt.log.Sync()
}

// resolveDSN fills in the default sqlite path and makes sure its
// directory exists.
func resolveDSN(cfg *config.Config) error {
	if cfg.Driver != store.DriverSQLite {
		return nil
	}
	if cfg.DSN == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		cfg.DSN = p
		return nil
	}
	return store.EnsureDir(cfg.DSN)
}

func resolveClock(cmd *cobra.Command, cfg config.Config) (calendar.Clock, error) {
	today, _ := cmd.Flags().GetString("today")
	if today == "" {
		return cfg.Clock()
	}
	d, err := calendar.ParseDate(today)
	if err != nil {
		return nil, fmt.Errorf("--today: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &calendar.FixedClock{
		At:       time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, loc),
		Location: loc,
	}, nil
}

func userFlag(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		return v
	}
	if v := os.Getenv("TRAILQUEST_USER"); v != "" {
		return v
	}
	return "local"
}
