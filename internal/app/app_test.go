package app

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
	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/screens/rewards"
	"github.com/abhisek/trailquest/internal/store"
)

func newTestApp(t *testing.T) AppModel {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := &calendar.FixedClock{At: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), Location: time.UTC}
	return newAppModel(engine.New(s, clock, engine.WithQueue(notify.NewQueue(0))), "u1")
}

func TestStatsLoadFromProfile(t *testing.T) {
	m := newTestApp(t)
	_, err := m.eng.ClaimDailyBonus(context.Background(), "u1")
	require.NoError(t, err)

	model, _ := m.Update(m.loadStats())
	m = model.(AppModel)
	assert.Equal(t, 10, m.stats.XP)
	assert.Equal(t, 5, m.stats.Coins)
	assert.Equal(t, 1, m.stats.Level)
}

func TestNotificationTakesKeyboard(t *testing.T) {
	m := newTestApp(t)
	ticket := m.eng.EnqueueReward(notify.Notification{Title: "Daily bonus", XP: 10})

	model, _ := m.Update(rewards.ChangedMsg{})
	m = model.(AppModel)
	require.True(t, m.surface.Active())

	// Esc does nothing while a card is up.
	model, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = model.(AppModel)
	assert.Nil(t, cmd)

	model, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = model.(AppModel)
	assert.Equal(t, notify.ReasonUser, ticket.Reason())

	model, _ = m.Update(rewards.ChangedMsg{})
	m = model.(AppModel)
	assert.False(t, m.surface.Active())
}

func TestCtrlCQuits(t *testing.T) {
	m := newTestApp(t)
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
