package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
	"github.com/abhisek/trailquest/internal/streak"
)

// LoginResult is the outcome of a login tick.
type LoginResult struct {
	Streak    int
	LastLogin calendar.Date
	Changed   bool

	// Milestone is set when this tick reached a streak milestone, or paid
	// a milestone badge an earlier tick for the same day failed to grant.
	// Its Outcome is AlreadyGranted if the badge was earned on an earlier
	// streak.
	Milestone *Claim
}

// Login runs a login tick for today in the server's reference timezone.
func (e *Engine) Login(ctx context.Context, userID string) (*LoginResult, error) {
	return e.OnLoginTick(ctx, userID, e.clock.Today())
}

// OnLoginTick updates the consecutive-day streak for a login on today.
// The write is a compare-and-set on last_login; when another session
// wins the race the profile is re-read and the streak recomputed.
func (e *Engine) OnLoginTick(ctx context.Context, userID string, today calendar.Date) (*LoginResult, error) {
	profiles := e.store.Profiles()
	if err := profiles.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxLoginAttempts; attempt++ {
		p, err := profiles.Profile(ctx, userID)
		if err != nil {
			return nil, err
		}

		r := streak.Calculate(today, p.LastLogin, p.StreakDays)
		res := &LoginResult{Streak: r.Streak, LastLogin: r.LastLogin, Changed: r.Changed}
		if !r.Changed {
			// The streak may have been saved by a tick whose badge grant
			// failed. The grant is idempotent, so retrying repairs it.
			if streak.IsMilestone(r.Streak) {
				c, err := e.grantMilestone(ctx, userID, r.Streak)
				if err != nil {
					return nil, err
				}
				if c.Granted() {
					e.log.Info("granted missed streak milestone", "user", userID, "streak", r.Streak)
					res.Milestone = c
				}
			}
			return res, nil
		}

		err = profiles.CompareAndSetStreak(ctx, userID, p.LastLogin, r.LastLogin, r.Streak)
		if errors.Is(err, store.ErrStaleWrite) {
			e.log.Debug("streak update lost race, retrying", "user", userID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		e.log.Info("streak updated", "user", userID, "streak", r.Streak, "day", r.LastLogin.String())
		if streak.IsMilestone(r.Streak) {
			if res.Milestone, err = e.grantMilestone(ctx, userID, r.Streak); err != nil {
				return nil, err
			}
		}
		return res, nil
	}
	return nil, fmt.Errorf("update streak for %s: %w", userID, store.ErrStaleWrite)
}

func (e *Engine) grantMilestone(ctx context.Context, userID string, days int) (*Claim, error) {
	badge := streak.BadgeID(days)
	rarity := rewards.StreakRarity(days)
	return e.grant(ctx, rewards.GrantRequest{
		UserID:      userID,
		Source:      rewards.SourceStreakMilestone,
		ReferenceID: badge,
		Amount:      rewards.StreakMilestoneAmount(days),
		BadgeID:     badge,
	}, notify.Notification{
		Title:   fmt.Sprintf("%d-day streak!", days),
		Message: rarity.DisplayName() + " badge unlocked",
	})
}

// ReconcileResult is the outcome of reconciling one user.
type ReconcileResult struct {
	UserID string
	Totals rewards.Totals
}

// ReconcileAll recomputes totals for every known user, at most limit at a
// time. Users are independent, so no cross-user locking is involved.
func (e *Engine) ReconcileAll(ctx context.Context, limit int) ([]ReconcileResult, error) {
	users, err := e.store.Grants().UserIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ReconcileResult, len(users))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, userID := range users {
		g.Go(func() error {
			totals, err := e.ledger.Reconcile(ctx, userID)
			if err != nil {
				return err
			}
			results[i] = ReconcileResult{UserID: userID, Totals: totals}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.log.Info("reconciled users", "count", len(results))
	return results, nil
}
