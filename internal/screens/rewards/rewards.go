// Package rewards is the display surface for the reward notification
// queue: it shows the current notification and lets the player dismiss it.
package rewards

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/ui/components"
	"github.com/abhisek/trailquest/internal/ui/layout"
)

// ChangedMsg reports that the queue's current notification changed.
type ChangedMsg struct{}

type keyMap struct {
	Dismiss key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Dismiss: key.NewBinding(
		key.WithKeys("enter", "space"),
		key.WithHelp("Enter", "Continue"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "Quit"),
	),
}

// Surface tracks the queue's current notification while attached.
type Surface struct {
	queue   *notify.Queue
	signal  <-chan struct{}
	detach  func()
	current *notify.Ticket
}

func NewSurface(q *notify.Queue) *Surface {
	return &Surface{queue: q}
}

// Attach registers the surface with the queue, which starts the
// auto-dismiss countdown, and returns the command that waits for changes.
func (s *Surface) Attach() tea.Cmd {
	if s.detach != nil {
		return nil
	}
	s.signal, s.detach = s.queue.Attach()
	return s.wait()
}

// Detach unregisters the surface. The countdown pauses until another
// surface attaches.
func (s *Surface) Detach() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

func (s *Surface) wait() tea.Cmd {
	signal := s.signal
	return func() tea.Msg {
		<-signal
		return ChangedMsg{}
	}
}

// Active reports whether a notification is on screen.
func (s *Surface) Active() bool {
	return s.current != nil
}

// Update consumes queue changes and dismiss keys. handled is false for
// messages the surface does not care about.
func (s *Surface) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case ChangedMsg:
		s.current, _ = s.queue.Current()
		if s.detach == nil {
			return true, nil
		}
		return true, s.wait()
	case tea.KeyPressMsg:
		if s.current != nil && key.Matches(msg, keys.Dismiss) {
			s.queue.Dismiss()
			return true, nil
		}
	}
	return false, nil
}

// View renders the current notification, or "" when nothing is shown.
func (s *Surface) View() string {
	if s.current == nil {
		return ""
	}
	return components.Toast{
		Notification: s.current.Notification,
		Queued:       max(s.queue.Len()-1, 0),
	}.View()
}

// Model is a standalone program that shows queued rewards and exits once
// the queue is drained.
type Model struct {
	surface *Surface
	queue   *notify.Queue
	width   int
	height  int
}

var _ tea.Model = Model{}

func New(q *notify.Queue) Model {
	return Model{surface: NewSurface(q), queue: q}
}

func (m Model) Init() tea.Cmd {
	return m.surface.Attach()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyPressMsg:
		if key.Matches(msg, keys.Quit) {
			m.surface.Detach()
			return m, tea.Quit
		}
	case ChangedMsg:
		_, cmd := m.surface.Update(msg)
		if m.queue.Len() == 0 {
			m.surface.Detach()
			return m, tea.Quit
		}
		return m, cmd
	}

	_, cmd := m.surface.Update(msg)
	return m, cmd
}

// Body renders the card and key hints.
func (m Model) Body() string {
	card := m.surface.View()
	if card == "" {
		return ""
	}
	hints := layout.RenderHints([]layout.KeyHint{
		{Key: keys.Dismiss.Help().Key, Description: keys.Dismiss.Help().Desc},
		{Key: keys.Quit.Help().Key, Description: keys.Quit.Help().Desc},
	})
	body := lipgloss.JoinVertical(lipgloss.Center, card, "", hints)
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) View() tea.View {
	return tea.NewView(m.Body())
}
