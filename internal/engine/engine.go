package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/logger"
	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
	"github.com/abhisek/trailquest/internal/streak"
)

// DailyBonusReference is the reference id of the daily bonus claim key.
const DailyBonusReference = "daily"

// maxLoginAttempts bounds compare-and-set retries of the streak update
// when concurrent sessions race.
const maxLoginAttempts = 3

// Engine is the progression and rewards service the UI and HTTP layers
// talk to.
type Engine struct {
	store      *store.Store
	ledger     *rewards.Ledger
	clock      calendar.Clock
	queue      *notify.Queue
	dailyBonus rewards.Amount
	retry      rewards.RetryConfig
	log        *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithQueue sets the notification queue rewards are announced on.
func WithQueue(q *notify.Queue) Option {
	return func(e *Engine) { e.queue = q }
}

// WithLogger sets the engine's logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithDailyBonus sets the daily bonus amount.
func WithDailyBonus(a rewards.Amount) Option {
	return func(e *Engine) { e.dailyBonus = a }
}

// WithRetry sets the retry policy of the ledger's totals update.
func WithRetry(cfg rewards.RetryConfig) Option {
	return func(e *Engine) { e.retry = cfg }
}

// New creates an engine. Without WithQueue a queue with a 4s timeout is
// created.
func New(s *store.Store, clock calendar.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		clock:      clock,
		dailyBonus: rewards.Amount{XP: 10, Coins: 5},
		retry:      rewards.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrNop(e.log)
	if e.queue == nil {
		e.queue = notify.NewQueue(4 * time.Second)
	}
	e.ledger = rewards.NewLedger(s.Grants(), clock,
		rewards.WithRetry(e.retry),
		rewards.WithRetryable(store.IsTransient),
		rewards.WithLogger(e.log.With("component", "ledger")))
	return e
}

// Queue returns the notification queue.
func (e *Engine) Queue() *notify.Queue {
	return e.queue
}

// Today returns the current day in the server's reference timezone.
func (e *Engine) Today() calendar.Date {
	return e.clock.Today()
}

// Modules lists the catalog.
func (e *Engine) Modules(ctx context.Context) ([]store.Module, error) {
	return e.store.Catalog().Modules(ctx)
}

// TrailView is a module's trail for one user.
type TrailView struct {
	Module   *store.Module
	Trail    *progression.Trail
	Progress float64
}

// ComputeTrail loads the module and the user's phase statuses and derives
// locks. Locks are never read from storage.
func (e *Engine) ComputeTrail(ctx context.Context, userID, moduleID string) (*TrailView, error) {
	m, err := e.store.Catalog().Module(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", moduleID, err)
	}
	trail, err := e.trail(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	stored, err := e.store.Progress().ReadModuleProgress(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	return &TrailView{
		Module:   m,
		Trail:    trail,
		Progress: progression.MonotonicProgress(stored, trail.ProgressPercent()),
	}, nil
}

func (e *Engine) trail(ctx context.Context, userID, moduleID string) (*progression.Trail, error) {
	states, err := e.store.Progress().ModulePhaseStates(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	trail, err := progression.ComputeTrail(moduleID, states)
	if err != nil {
		e.log.Error("invalid phase ordering", "module", moduleID, "error", err)
		return nil, err
	}
	return trail, nil
}

// PhaseResult reports the effect of entering or completing a phase.
type PhaseResult struct {
	PhaseID  string
	ModuleID string
	Status   progression.Status

	// Replay is set when the phase was already completed: the content is
	// shown again and nothing is written.
	Replay bool

	ModuleComplete bool
	Progress       float64
	RewardPreview  rewards.Amount
}

// StartPhase enters a phase. The lock is re-validated here regardless of
// what the client believed.
func (e *Engine) StartPhase(ctx context.Context, userID, phaseID string) (*PhaseResult, error) {
	moduleID, trail, tp, err := e.enter(ctx, userID, phaseID)
	if err != nil {
		return nil, err
	}

	res := &PhaseResult{PhaseID: phaseID, ModuleID: moduleID, Status: tp.Status, ModuleComplete: trail.ModuleComplete}
	switch tp.Status {
	case progression.StatusCompleted:
		res.Replay = true
	case progression.StatusAvailable:
		if err := e.store.Progress().WritePhaseStatus(ctx, userID, phaseID, progression.StatusInProgress, e.clock.Now(), nil); err != nil {
			return nil, fmt.Errorf("start phase %q: %w", phaseID, err)
		}
		res.Status = progression.StatusInProgress
	}
	return res, nil
}

// CompletePhase completes a phase, then recomputes and stores the
// module's progress. Completing an already completed phase is a replay.
func (e *Engine) CompletePhase(ctx context.Context, userID, phaseID string, rating *int) (*PhaseResult, error) {
	if err := progression.ValidateRating(rating); err != nil {
		return nil, err
	}
	moduleID, _, tp, err := e.enter(ctx, userID, phaseID)
	if err != nil {
		return nil, err
	}

	res := &PhaseResult{PhaseID: phaseID, ModuleID: moduleID, Status: progression.StatusCompleted}
	now := e.clock.Now()
	if tp.Status == progression.StatusCompleted {
		res.Replay = true
	} else if err := e.store.Progress().WritePhaseStatus(ctx, userID, phaseID, progression.StatusCompleted, now, rating); err != nil {
		return nil, fmt.Errorf("complete phase %q: %w", phaseID, err)
	}

	trail, err := e.trail(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !res.Replay {
		progress := trail.ProgressPercent()
		if err := e.store.Progress().WriteModuleProgress(ctx, userID, moduleID, progress, trail.ModuleComplete, now); err != nil {
			return nil, fmt.Errorf("write module progress %q: %w", moduleID, err)
		}
	}
	if res.Progress, err = e.store.Progress().ReadModuleProgress(ctx, userID, moduleID); err != nil {
		return nil, err
	}

	res.ModuleComplete = trail.ModuleComplete
	if res.ModuleComplete {
		if res.RewardPreview, err = e.ModuleRewardPreview(ctx, moduleID); err != nil {
			return nil, err
		}
	}
	e.log.Debug("phase completed", "user", userID, "phase", phaseID, "replay", res.Replay, "progress", res.Progress)
	return res, nil
}

// enter resolves the phase's module, rebuilds the trail and checks the
// lock.
func (e *Engine) enter(ctx context.Context, userID, phaseID string) (string, *progression.Trail, progression.TrailPhase, error) {
	moduleID, err := e.store.Catalog().ModuleForPhase(ctx, phaseID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, progression.TrailPhase{}, &progression.ErrUnknownPhase{PhaseID: phaseID}
	}
	if err != nil {
		return "", nil, progression.TrailPhase{}, err
	}
	trail, err := e.trail(ctx, userID, moduleID)
	if err != nil {
		return "", nil, progression.TrailPhase{}, err
	}
	if err := trail.CheckEnter(phaseID); err != nil {
		return "", nil, progression.TrailPhase{}, err
	}
	tp, _, _ := trail.Find(phaseID)
	return moduleID, trail, tp, nil
}

// ModuleRewardPreview returns what claiming the module pays. Claiming
// uses the same computation, so preview and collect always agree for a
// module version.
func (e *Engine) ModuleRewardPreview(ctx context.Context, moduleID string) (rewards.Amount, error) {
	m, err := e.store.Catalog().Module(ctx, moduleID)
	if err != nil {
		return rewards.Amount{}, fmt.Errorf("module %q: %w", moduleID, err)
	}
	return rewards.ModuleReward(m.Phases, m.Bonus), nil
}

// Claim is the outcome of a reward claim. Ticket is set only when the
// reward was granted by this call.
type Claim struct {
	*rewards.Result
	Ticket *notify.Ticket
}

// ClaimModuleReward pays the module completion reward once per user and
// module. A repeat returns AlreadyGranted, not an error.
func (e *Engine) ClaimModuleReward(ctx context.Context, userID, moduleID string) (*Claim, error) {
	m, err := e.store.Catalog().Module(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", moduleID, err)
	}
	trail, err := e.trail(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !trail.ModuleComplete {
		return nil, &ErrModuleIncomplete{ModuleID: moduleID, Completed: trail.CompletedCount(), Total: len(trail.Phases)}
	}

	amount := rewards.ModuleReward(m.Phases, m.Bonus)
	return e.grant(ctx, rewards.GrantRequest{
		UserID:      userID,
		Source:      rewards.SourceModuleCompletion,
		ReferenceID: moduleID,
		Amount:      amount,
	}, notify.Notification{
		Title:   "Module complete!",
		Message: m.Title,
	})
}

// ClaimDailyBonus pays the daily bonus once per user and reference-zone
// calendar day.
func (e *Engine) ClaimDailyBonus(ctx context.Context, userID string) (*Claim, error) {
	return e.grant(ctx, rewards.GrantRequest{
		UserID:      userID,
		Source:      rewards.SourceDailyBonus,
		ReferenceID: DailyBonusReference,
		Amount:      e.dailyBonus,
		Scope:       rewards.ScopeDaily,
	}, notify.Notification{
		Title:   "Daily bonus",
		Message: "Thanks for showing up today.",
	})
}

func (e *Engine) grant(ctx context.Context, req rewards.GrantRequest, n notify.Notification) (*Claim, error) {
	res, err := e.ledger.Grant(ctx, req)
	if err != nil {
		return nil, err
	}
	c := &Claim{Result: res}
	if res.Granted() {
		n.XP = req.Amount.XP
		n.Coins = req.Amount.Coins
		n.BadgeID = req.BadgeID
		n.Source = string(req.Source)
		c.Ticket = e.EnqueueReward(n)
	}
	return c, nil
}

// EnqueueReward announces a reward. The ticket resolves when the user
// dismisses it or it times out.
func (e *Engine) EnqueueReward(n notify.Notification) *notify.Ticket {
	return e.queue.Enqueue(n)
}

// DismissCurrent dismisses the notification on screen.
func (e *Engine) DismissCurrent() bool {
	return e.queue.Dismiss()
}

// ProfileView is a user's profile with earned badges.
type ProfileView struct {
	*store.Profile
	Badges        []string
	NextMilestone int
}

// Profile returns the user's profile, creating an empty one on first use.
func (e *Engine) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	if err := e.store.Profiles().EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}
	p, err := e.store.Profiles().Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := e.store.Grants().Badges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: p, Badges: badges, NextMilestone: streak.NextMilestone(p.StreakDays)}, nil
}

// Reconcile recomputes a user's totals from the ledger.
func (e *Engine) Reconcile(ctx context.Context, userID string) (rewards.Totals, error) {
	return e.ledger.Reconcile(ctx, userID)
}
