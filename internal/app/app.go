package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/router"
	"github.com/abhisek/trailquest/internal/screen"
	"github.com/abhisek/trailquest/internal/screens/home"
	"github.com/abhisek/trailquest/internal/screens/rewards"
	"github.com/abhisek/trailquest/internal/ui/layout"
)

type statsMsg struct {
	stats layout.Stats
	err   error
}

// AppModel is the root Bubble Tea model. Reward notifications are drawn
// over whatever screen is active.
type AppModel struct {
	eng     *engine.Engine
	userID  string
	router  *router.Router
	surface *rewards.Surface
	stats   layout.Stats
	width   int
	height  int
}

func newAppModel(eng *engine.Engine, userID string) AppModel {
	return AppModel{
		eng:     eng,
		userID:  userID,
		router:  router.New(home.New(eng, userID)),
		surface: rewards.NewSurface(eng.Queue()),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.surface.Attach(), m.loadStats)
}

func (m AppModel) loadStats() tea.Msg {
	p, err := m.eng.Profile(context.Background(), m.userID)
	if err != nil {
		return statsMsg{err: err}
	}
	return statsMsg{stats: layout.Stats{
		XP:     p.Totals.XP,
		Coins:  p.Totals.Coins,
		Level:  p.Totals.Level,
		Streak: p.StreakDays,
	}}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statsMsg:
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, nil

	case screen.RefreshMsg:
		return m, tea.Batch(m.router.Broadcast(msg), m.loadStats)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.surface.Detach()
			return m, tea.Quit
		case "esc":
			if !m.surface.Active() && m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
		// A visible notification takes the keyboard.
		if m.surface.Active() {
			_, cmd := m.surface.Update(msg)
			return m, cmd
		}
	}

	if handled, cmd := m.surface.Update(msg); handled {
		if _, ok := msg.(rewards.ChangedMsg); ok {
			return m, tea.Batch(cmd, m.loadStats)
		}
		return m, cmd
	}
	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.stats, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	}
	if m.surface.Active() {
		hints = []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	if card := m.surface.View(); card != "" {
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, card)
	}

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the interactive trail browser for userID.
func Run(eng *engine.Engine, userID string) error {
	m := newAppModel(eng, userID)
	defer m.surface.Detach()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

// ShowRewards runs the rewards screen until every queued notification has
// been dismissed or timed out.
func ShowRewards(eng *engine.Engine) error {
	if eng.Queue().Len() == 0 {
		return nil
	}
	_, err := tea.NewProgram(rewards.New(eng.Queue())).Run()
	return err
}
