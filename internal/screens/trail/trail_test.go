package trail

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/screen"
	"github.com/abhisek/trailquest/internal/store"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Catalog().UpsertModule(context.Background(), store.Module{
		ID: "m1", Title: "Intro", Version: "v1.0.0",
		Bonus: rewards.Amount{XP: 40, Coins: 4},
		Phases: []progression.Phase{
			{ID: "p0", OrderIndex: 0, Kind: progression.KindVideo, Title: "Watch", XP: 10, Coins: 1},
			{ID: "p1", OrderIndex: 1, Kind: progression.KindQuiz, Title: "Quiz", XP: 20, Coins: 2},
		},
	}))
	clock := &calendar.FixedClock{At: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), Location: time.UTC}
	return engine.New(s, clock)
}

// press sends a key and runs the resulting command once.
func press(t *testing.T, s screen.Screen, k tea.KeyPressMsg) (screen.Screen, tea.Msg) {
	t.Helper()
	s, cmd := s.Update(k)
	if cmd == nil {
		return s, nil
	}
	msg := cmd()
	s, _ = s.Update(msg)
	return s, msg
}

func loaded(t *testing.T, s screen.Screen) screen.Screen {
	t.Helper()
	s, _ = s.Update(s.Init()())
	return s
}

func TestTrailScreen_Loads(t *testing.T) {
	var s screen.Screen = New(newEngine(t), "u1", "m1")
	assert.Equal(t, "Trail", s.Title())

	s = loaded(t, s)
	assert.Equal(t, "Intro", s.Title())
	view := s.View(80, 24)
	assert.Contains(t, view, "Watch")
	assert.Contains(t, view, "Quiz")
	assert.Contains(t, view, "🔒")
}

func TestTrailScreen_LockedPhase(t *testing.T) {
	var s screen.Screen = New(newEngine(t), "u1", "m1")
	s = loaded(t, s)

	s, _ = s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s, _ = press(t, s, tea.KeyPressMsg{Code: 'c', Text: "c"})
	assert.Contains(t, s.View(80, 24), `Finish "p0" first`)

	s, _ = press(t, s, tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Contains(t, s.View(80, 24), "Complete every phase first (0/2)")
}

func TestTrailScreen_CompleteAndClaim(t *testing.T) {
	eng := newEngine(t)
	var s screen.Screen = New(eng, "u1", "m1")
	s = loaded(t, s)

	s, msg := press(t, s, tea.KeyPressMsg{Code: 'c', Text: "c"})
	require.IsType(t, actionMsg{}, msg)
	assert.Contains(t, s.View(80, 24), "50% done")

	// The app broadcasts a refresh after an action.
	s, cmd := s.Update(screen.RefreshMsg{})
	s, _ = s.Update(cmd())

	s, _ = s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s, _ = press(t, s, tea.KeyPressMsg{Code: 'c', Text: "c"})
	assert.Contains(t, s.View(80, 24), "collect 70 XP and 7 coins")

	s, _ = press(t, s, tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Contains(t, s.View(80, 24), "Reward collected!")
	assert.Equal(t, 1, eng.Queue().Len())

	s, _ = press(t, s, tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Contains(t, s.View(80, 24), "already collected")
}
