package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/router"
	"github.com/abhisek/trailquest/internal/screen"
	"github.com/abhisek/trailquest/internal/screens/trail"
	"github.com/abhisek/trailquest/internal/store"
	"github.com/abhisek/trailquest/internal/ui/components"
	"github.com/abhisek/trailquest/internal/ui/layout"
	"github.com/abhisek/trailquest/internal/ui/theme"
)

type modulesLoadedMsg struct {
	modules []store.Module
	err     error
}

// HomeScreen lists the catalog's modules.
type HomeScreen struct {
	eng     *engine.Engine
	userID  string
	menu    components.Menu
	modules []store.Module
	loaded  bool
	err     error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

func New(eng *engine.Engine, userID string) *HomeScreen {
	return &HomeScreen{eng: eng, userID: userID}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load
}

func (h *HomeScreen) load() tea.Msg {
	modules, err := h.eng.Modules(context.Background())
	return modulesLoadedMsg{modules: modules, err: err}
}

func (h *HomeScreen) Title() string {
	return "Modules"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open trail"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case modulesLoadedMsg:
		h.loaded = true
		h.err = msg.err
		h.modules = msg.modules
		h.menu = components.NewMenu(h.menuItems())
		return h, nil
	case screen.RefreshMsg:
		return h, h.load
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.modules))
	for _, m := range h.modules {
		moduleID := m.ID
		items = append(items, components.MenuItem{
			Label:  m.Title,
			Detail: fmt.Sprintf("%s · %d phases", m.Version, len(m.Phases)),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: trail.New(h.eng, h.userID, moduleID)}
				}
			},
		})
	}
	return items
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Title.Render("Choose a trail")))
	b.WriteString("\n\n")

	switch {
	case h.err != nil:
		b.WriteString(theme.ErrorText.Render("  " + h.err.Error()))
	case !h.loaded:
		b.WriteString(theme.Hint.Render("  Loading…"))
	case len(h.modules) == 0:
		b.WriteString(theme.Hint.Render("  No modules yet. Import a catalog with `trailquest import`."))
	default:
		b.WriteString(h.menu.View())
	}
	return b.String()
}
