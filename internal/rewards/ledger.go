package rewards

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/logger"
)

// Repo is the durable side of the ledger.
type Repo interface {
	// InsertGrant records g if no row with the same claim key exists.
	// It returns false, nil when the key is already taken. The check and
	// insert must be a single atomic statement.
	InsertGrant(ctx context.Context, g Grant) (bool, error)

	// ApplyGrant adds g's amount to the user's running totals and
	// recomputes the level. It must apply a given grant at most once so
	// that retries are safe.
	ApplyGrant(ctx context.Context, g Grant) (Totals, error)

	// SumGrants totals every ledger row for a user.
	SumGrants(ctx context.Context, userID string) (Amount, error)

	// SetTotals overwrites the running totals and marks every grant of
	// the user as applied.
	SetTotals(ctx context.Context, userID string, t Totals) error
}

// Ledger grants rewards exactly once per claim key.
type Ledger struct {
	repo  Repo
	clock calendar.Clock
	retry RetryConfig
	// retryable reports whether a failed totals update is worth retrying.
	retryable func(error) bool
	log       *logger.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRetry overrides the retry policy for the totals update.
func WithRetry(cfg RetryConfig) Option {
	return func(l *Ledger) { l.retry = cfg }
}

// WithRetryable limits totals retries to errors f accepts, such as
// transient store failures.
func WithRetryable(f func(error) bool) Option {
	return func(l *Ledger) { l.retryable = f }
}

// WithLogger sets the ledger's logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// NewLedger creates a ledger over repo. Daily-scoped keys use clock's
// calendar day.
func NewLedger(repo Repo, clock calendar.Clock, opts ...Option) *Ledger {
	l := &Ledger{
		repo:  repo,
		clock: clock,
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logger.OrNop(l.log)
	return l
}

// Grant pays req once per claim key. A repeat for an already-paid key
// returns OutcomeAlreadyGranted and a nil error; only infrastructure
// failures are returned as errors, and those are safe to retry.
func (l *Ledger) Grant(ctx context.Context, req GrantRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	scope := req.Scope
	if scope == "" {
		scope = req.Source.DefaultScope()
	}

	key := NewClaimKey(req.UserID, req.Source, req.ReferenceID, scope, l.clock.Today())
	g := Grant{
		ID:        uuid.NewString(),
		Key:       key,
		Amount:    req.Amount,
		BadgeID:   req.BadgeID,
		GrantedAt: l.clock.Now(),
	}

	inserted, err := l.repo.InsertGrant(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("insert grant %s: %w", key, err)
	}
	if !inserted {
		l.log.Debug("reward already granted", "key", key.String())
		return &Result{Outcome: OutcomeAlreadyGranted, Key: key}, nil
	}

	res := &Result{Outcome: OutcomeGranted, Key: key, Grant: g}

	totals, err := retry(ctx, l.retry, l.retryable, func(ctx context.Context) (Totals, error) {
		return l.repo.ApplyGrant(ctx, g)
	})
	if err != nil {
		// The ledger row is the source of truth; totals catch up on Reconcile.
		l.log.Warn("grant recorded but totals not updated",
			"key", key.String(), "grant_id", g.ID, "error", err)
		res.TotalsStale = true
		return res, nil
	}

	res.Totals = totals
	l.log.Info("reward granted",
		"key", key.String(), "xp", g.Amount.XP, "coins", g.Amount.Coins, "level", totals.Level)
	return res, nil
}

// Reconcile recomputes a user's totals by summing ledger rows.
func (l *Ledger) Reconcile(ctx context.Context, userID string) (Totals, error) {
	sum, err := l.repo.SumGrants(ctx, userID)
	if err != nil {
		return Totals{}, fmt.Errorf("sum grants for %s: %w", userID, err)
	}
	t := Totals{XP: sum.XP, Coins: sum.Coins, Level: Level(sum.XP)}
	if err := l.repo.SetTotals(ctx, userID, t); err != nil {
		return Totals{}, fmt.Errorf("set totals for %s: %w", userID, err)
	}
	return t, nil
}
