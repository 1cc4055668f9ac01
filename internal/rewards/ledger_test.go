package rewards

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/trailquest/internal/calendar"
)

// memRepo implements Repo in memory for ledger tests.
type memRepo struct {
	mu      sync.Mutex
	grants  map[ClaimKey]Grant
	applied map[string]bool
	totals  map[string]Totals

	insertErr error
	applyErrs int // fail this many ApplyGrant calls first
	applyN    atomic.Int32
}

func newMemRepo() *memRepo {
	return &memRepo{
		grants:  make(map[ClaimKey]Grant),
		applied: make(map[string]bool),
		totals:  make(map[string]Totals),
	}
}

func (m *memRepo) InsertGrant(_ context.Context, g Grant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, ok := m.grants[g.Key]; ok {
		return false, nil
	}
	m.grants[g.Key] = g
	return true, nil
}

func (m *memRepo) ApplyGrant(_ context.Context, g Grant) (Totals, error) {
	if int(m.applyN.Add(1)) <= m.applyErrs {
		return Totals{}, errors.New("database is locked")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.totals[g.Key.UserID]
	if !m.applied[g.ID] {
		m.applied[g.ID] = true
		t.XP += g.Amount.XP
		t.Coins += g.Amount.Coins
		t.Level = Level(t.XP)
		m.totals[g.Key.UserID] = t
	}
	return t, nil
}

func (m *memRepo) SumGrants(_ context.Context, userID string) (Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum Amount
	for k, g := range m.grants {
		if k.UserID == userID {
			sum = sum.Add(g.Amount)
		}
	}
	return sum, nil
}

func (m *memRepo) SetTotals(_ context.Context, userID string, t Totals) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[userID] = t
	for k, g := range m.grants {
		if k.UserID == userID {
			m.applied[g.ID] = true
		}
	}
	return nil
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func newTestLedger() (*Ledger, *memRepo, *calendar.FixedClock) {
	repo := newMemRepo()
	clock := &calendar.FixedClock{At: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	return NewLedger(repo, clock, WithRetry(fastRetry())), repo, clock
}

func moduleReq(xp, coins int) GrantRequest {
	return GrantRequest{
		UserID:      "u1",
		Source:      SourceModuleCompletion,
		ReferenceID: "algebra-1",
		Amount:      Amount{XP: xp, Coins: coins},
	}
}

func TestGrant_OneShotIsIdempotent(t *testing.T) {
	l, repo, _ := newTestLedger()
	ctx := context.Background()

	first, err := l.Grant(ctx, moduleReq(120, 30))
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, first.Outcome)
	assert.Equal(t, Totals{XP: 120, Coins: 30, Level: 2}, first.Totals)

	second, err := l.Grant(ctx, moduleReq(120, 30))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyGranted, second.Outcome)
	assert.False(t, second.Granted())

	assert.Equal(t, 120, repo.totals["u1"].XP, "XP must increase exactly once")
	assert.Len(t, repo.grants, 1)
}

func TestGrant_DailyScopedResetsNextDay(t *testing.T) {
	l, repo, clock := newTestLedger()
	ctx := context.Background()
	req := GrantRequest{UserID: "u1", Source: SourceDailyBonus, ReferenceID: "daily", Amount: Amount{XP: 10, Coins: 5}}

	r1, err := l.Grant(ctx, req)
	require.NoError(t, err)
	assert.True(t, r1.Granted())
	assert.Equal(t, "2026-10-19", r1.Key.Day)

	// Later the same day.
	clock.Advance(10 * time.Hour)
	r2, err := l.Grant(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyGranted, r2.Outcome)

	clock.Advance(5 * time.Hour)
	r3, err := l.Grant(ctx, req)
	require.NoError(t, err)
	assert.True(t, r3.Granted())
	assert.Equal(t, "2026-10-20", r3.Key.Day)

	assert.Equal(t, 20, repo.totals["u1"].XP)
}

func TestGrant_DistinctUsersAndReferences(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	a := moduleReq(10, 0)
	b := moduleReq(10, 0)
	b.UserID = "u2"
	c := moduleReq(10, 0)
	c.ReferenceID = "algebra-2"

	for _, req := range []GrantRequest{a, b, c} {
		res, err := l.Grant(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.Granted(), "%+v", req)
	}
}

func TestGrant_ConcurrentDuplicatesPayOnce(t *testing.T) {
	l, repo, _ := newTestLedger()

	var granted, already atomic.Int32
	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			res, err := l.Grant(context.Background(), moduleReq(50, 10))
			if err != nil {
				return err
			}
			if res.Granted() {
				granted.Add(1)
			} else {
				already.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, granted.Load())
	assert.EqualValues(t, 15, already.Load())
	assert.Equal(t, 50, repo.totals["u1"].XP)
}

func TestGrant_RetriesTotalsUpdate(t *testing.T) {
	l, repo, _ := newTestLedger()
	repo.applyErrs = 2

	res, err := l.Grant(context.Background(), moduleReq(100, 0))
	require.NoError(t, err)
	assert.True(t, res.Granted())
	assert.False(t, res.TotalsStale)
	assert.Equal(t, 2, res.Totals.Level)
	assert.EqualValues(t, 3, repo.applyN.Load())
}

func TestGrant_PermanentTotalsErrorNotRetried(t *testing.T) {
	repo := newMemRepo()
	repo.applyErrs = 2
	clock := &calendar.FixedClock{At: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	l := NewLedger(repo, clock, WithRetry(fastRetry()), WithRetryable(func(error) bool { return false }))

	res, err := l.Grant(context.Background(), moduleReq(100, 0))
	require.NoError(t, err)
	assert.True(t, res.Granted())
	assert.True(t, res.TotalsStale)
	assert.EqualValues(t, 1, repo.applyN.Load())
}

func TestGrant_TotalsStaleThenReconcile(t *testing.T) {
	l, repo, _ := newTestLedger()
	repo.applyErrs = 10
	ctx := context.Background()

	res, err := l.Grant(ctx, moduleReq(250, 40))
	require.NoError(t, err, "a recorded grant is not a failure")
	assert.True(t, res.Granted())
	assert.True(t, res.TotalsStale)
	assert.Zero(t, repo.totals["u1"].XP)

	totals, err := l.Reconcile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Totals{XP: 250, Coins: 40, Level: 3}, totals)
}

func TestGrant_InsertFailureIsError(t *testing.T) {
	l, repo, _ := newTestLedger()
	repo.insertErr = errors.New("connection reset")

	_, err := l.Grant(context.Background(), moduleReq(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGrant_Validation(t *testing.T) {
	l, _, _ := newTestLedger()
	ctx := context.Background()

	bad := []GrantRequest{
		{Source: SourceDailyBonus, ReferenceID: "daily"},
		{UserID: "u1", ReferenceID: "daily"},
		{UserID: "u1", Source: SourceDailyBonus},
		{UserID: "u1", Source: SourceDailyBonus, ReferenceID: "daily", Amount: Amount{XP: -1}},
		{UserID: "u1", Source: SourceDailyBonus, ReferenceID: "daily", Scope: "weekly"},
	}
	for _, req := range bad {
		_, err := l.Grant(ctx, req)
		assert.Error(t, err, "%+v", req)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct{ xp, want int }{
		{0, 1}, {99, 1}, {100, 2}, {199, 2}, {250, 3}, {1000, 11}, {-5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.xp), "Level(%d)", tt.xp)
	}
}

func TestClaimKey(t *testing.T) {
	day := calendar.MustParseDate("2026-10-19")
	assert.Equal(t, "u1/module_completion/m1", NewClaimKey("u1", SourceModuleCompletion, "m1", ScopeOneShot, day).String())
	assert.Equal(t, "u1/daily_bonus/daily@2026-10-19", NewClaimKey("u1", SourceDailyBonus, "daily", ScopeDaily, day).String())
	assert.Equal(t, ScopeDaily, SourceDailyBonus.DefaultScope())
	assert.Equal(t, ScopeOneShot, SourceModuleCompletion.DefaultScope())
}
