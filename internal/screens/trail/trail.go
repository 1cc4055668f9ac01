package trail

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/screen"
	"github.com/abhisek/trailquest/internal/ui/layout"
	"github.com/abhisek/trailquest/internal/ui/theme"
	"github.com/abhisek/trailquest/internal/ui/trailview"
)

type loadedMsg struct {
	view *engine.TrailView
	err  error
}

type actionMsg struct {
	status string
	err    error
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Start    key.Binding
	Complete key.Binding
	Claim    key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓", "Navigate")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Start:    key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("Enter", "Start")),
	Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Complete")),
	Claim:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Claim reward")),
}

// TrailScreen shows one module's trail and drives phase actions.
type TrailScreen struct {
	eng      *engine.Engine
	userID   string
	moduleID string

	view     *engine.TrailView
	selected int
	status   string
	err      error
}

var _ screen.Screen = (*TrailScreen)(nil)
var _ screen.KeyHintProvider = (*TrailScreen)(nil)

func New(eng *engine.Engine, userID, moduleID string) *TrailScreen {
	return &TrailScreen{eng: eng, userID: userID, moduleID: moduleID}
}

func (s *TrailScreen) Init() tea.Cmd {
	return s.load
}

func (s *TrailScreen) load() tea.Msg {
	v, err := s.eng.ComputeTrail(context.Background(), s.userID, s.moduleID)
	return loadedMsg{view: v, err: err}
}

func (s *TrailScreen) Title() string {
	if s.view != nil {
		return s.view.Module.Title
	}
	return "Trail"
}

func (s *TrailScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	for _, b := range []key.Binding{keys.Up, keys.Start, keys.Complete, keys.Claim} {
		hints = append(hints, layout.KeyHint{Key: b.Help().Key, Description: b.Help().Desc})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *TrailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.view, s.err = msg.view, msg.err
		if s.view != nil {
			s.selected = min(s.selected, max(len(s.view.Trail.Phases)-1, 0))
		}
		return s, nil

	case actionMsg:
		s.status, s.err = msg.status, msg.err
		if msg.err != nil {
			return s, nil
		}
		return s, func() tea.Msg { return screen.RefreshMsg{} }

	case screen.RefreshMsg:
		return s, s.load

	case tea.KeyPressMsg:
		if s.view == nil || len(s.view.Trail.Phases) == 0 {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			s.selected = max(s.selected-1, 0)
		case key.Matches(msg, keys.Down):
			s.selected = min(s.selected+1, len(s.view.Trail.Phases)-1)
		case key.Matches(msg, keys.Start):
			return s, s.start(s.phaseID())
		case key.Matches(msg, keys.Complete):
			return s, s.complete(s.phaseID())
		case key.Matches(msg, keys.Claim):
			return s, s.claim()
		}
	}
	return s, nil
}

func (s *TrailScreen) phaseID() string {
	return s.view.Trail.Phases[s.selected].PhaseID
}

func (s *TrailScreen) start(phaseID string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.eng.StartPhase(context.Background(), s.userID, phaseID)
		if err != nil {
			return actionMsg{err: err}
		}
		if res.Replay {
			return actionMsg{status: "Replaying a completed phase."}
		}
		return actionMsg{status: "Phase started."}
	}
}

func (s *TrailScreen) complete(phaseID string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.eng.CompletePhase(context.Background(), s.userID, phaseID, nil)
		if err != nil {
			return actionMsg{err: err}
		}
		switch {
		case res.Replay:
			return actionMsg{status: "Already completed."}
		case res.ModuleComplete:
			return actionMsg{status: fmt.Sprintf("Module complete! Press r to collect %d XP and %d coins.",
				res.RewardPreview.XP, res.RewardPreview.Coins)}
		}
		return actionMsg{status: fmt.Sprintf("Phase completed. %.0f%% done.", res.Progress)}
	}
}

func (s *TrailScreen) claim() tea.Cmd {
	return func() tea.Msg {
		c, err := s.eng.ClaimModuleReward(context.Background(), s.userID, s.moduleID)
		if err != nil {
			return actionMsg{err: err}
		}
		if !c.Granted() {
			return actionMsg{status: "Reward already collected."}
		}
		return actionMsg{status: "Reward collected!"}
	}
}

// describe turns engine errors into player-facing text.
func describe(err error) string {
	var locked *progression.ErrPhaseLocked
	var incomplete *engine.ErrModuleIncomplete
	switch {
	case errors.As(err, &locked):
		return fmt.Sprintf("Locked. Finish %q first.", locked.BlockedBy)
	case errors.As(err, &incomplete):
		return fmt.Sprintf("Complete every phase first (%d/%d).", incomplete.Completed, incomplete.Total)
	}
	return err.Error()
}

func (s *TrailScreen) View(width, height int) string {
	if s.view == nil {
		if s.err != nil {
			return theme.ErrorText.Render("  " + describe(s.err))
		}
		return theme.Hint.Render("  Loading…")
	}

	out := trailview.Render(s.view, s.selected, width-4) + "\n\n"
	switch {
	case s.err != nil:
		out += theme.ErrorText.Render(describe(s.err))
	case s.status != "":
		out += theme.Body.Render(s.status)
	}
	return out
}
