package rewards

import (
	"fmt"
	"time"

	"github.com/abhisek/trailquest/internal/calendar"
)

// Source identifies what earned a reward.
type Source string

const (
	SourceDailyBonus        Source = "daily_bonus"
	SourceModuleCompletion  Source = "module_completion"
	SourceAchievementUnlock Source = "achievement_unlock"
	SourceStreakMilestone   Source = "streak_milestone"
)

// AllSources returns every reward source.
func AllSources() []Source {
	return []Source{SourceDailyBonus, SourceModuleCompletion, SourceAchievementUnlock, SourceStreakMilestone}
}

// DefaultScope returns the uniqueness scope normally used for s.
func (s Source) DefaultScope() Scope {
	if s == SourceDailyBonus {
		return ScopeDaily
	}
	return ScopeOneShot
}

// Scope determines which tuple guards a grant against double payout.
type Scope string

const (
	// ScopeOneShot pays once per (user, source, reference).
	ScopeOneShot Scope = "one_shot"
	// ScopeDaily pays once per (user, source, reference, calendar day).
	ScopeDaily Scope = "daily"
)

// ClaimKey is the idempotency tuple for a grant. Day is empty for
// one-shot grants so a single unique index covers both scopes.
type ClaimKey struct {
	UserID      string
	Source      Source
	ReferenceID string
	Day         string
}

// NewClaimKey builds the claim key for scope on the given server day.
func NewClaimKey(userID string, source Source, referenceID string, scope Scope, today calendar.Date) ClaimKey {
	k := ClaimKey{UserID: userID, Source: source, ReferenceID: referenceID}
	if scope == ScopeDaily {
		k.Day = today.String()
	}
	return k
}

func (k ClaimKey) String() string {
	if k.Day == "" {
		return fmt.Sprintf("%s/%s/%s", k.UserID, k.Source, k.ReferenceID)
	}
	return fmt.Sprintf("%s/%s/%s@%s", k.UserID, k.Source, k.ReferenceID, k.Day)
}

// Amount is an XP/coin pair.
type Amount struct {
	XP    int
	Coins int
}

// Add returns the component-wise sum.
func (a Amount) Add(b Amount) Amount {
	return Amount{XP: a.XP + b.XP, Coins: a.Coins + b.Coins}
}

// GrantRequest asks the ledger to pay a reward.
type GrantRequest struct {
	UserID      string
	Source      Source
	ReferenceID string
	Amount      Amount
	BadgeID     string // optional
	Scope       Scope  // empty means Source.DefaultScope()
}

func (r GrantRequest) validate() error {
	switch {
	case r.UserID == "":
		return fmt.Errorf("grant: user id is required")
	case r.Source == "":
		return fmt.Errorf("grant: source is required")
	case r.ReferenceID == "":
		return fmt.Errorf("grant: reference id is required")
	case r.Amount.XP < 0 || r.Amount.Coins < 0:
		return fmt.Errorf("grant: negative amount %+v", r.Amount)
	}
	if r.Scope != "" && r.Scope != ScopeOneShot && r.Scope != ScopeDaily {
		return fmt.Errorf("grant: unknown scope %q", r.Scope)
	}
	return nil
}

// Grant is an append-only ledger row.
type Grant struct {
	ID        string
	Key       ClaimKey
	Amount    Amount
	BadgeID   string
	GrantedAt time.Time
}

// Outcome distinguishes a fresh payout from an idempotent repeat.
type Outcome int

const (
	OutcomeGranted Outcome = iota + 1
	OutcomeAlreadyGranted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeAlreadyGranted:
		return "already_granted"
	default:
		return "unknown"
	}
}

// Totals are a user's running XP, coins and derived level.
type Totals struct {
	XP    int
	Coins int
	Level int
}

// Level maps total XP to a level: every 100 XP is one level, starting at 1.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/100 + 1
}

// Result is the outcome of a grant call.
type Result struct {
	Outcome Outcome
	Key     ClaimKey
	Grant   Grant  // zero when AlreadyGranted
	Totals  Totals // zero when AlreadyGranted or TotalsStale

	// TotalsStale is set when the grant was recorded but the running
	// totals could not be updated. Reconcile repairs them from the ledger.
	TotalsStale bool
}

// Granted reports whether this call paid the reward.
func (r *Result) Granted() bool { return r.Outcome == OutcomeGranted }
