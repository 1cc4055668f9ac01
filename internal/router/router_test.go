package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/trailquest/internal/screen"
)

// stubScreen records what it receives.
type stubScreen struct {
	title   string
	initRan bool
	seen    []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "modules"}
	r := New(s1)

	s2 := &stubScreen{title: "trail"}
	r.Update(PushScreenMsg{Screen: s2})

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "trail" {
		t.Errorf("expected active 'trail', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "modules"}
	r := New(s1)
	r.Push(&stubScreen{title: "trail"})

	r.Update(PopScreenMsg{})
	r.Update(PopScreenMsg{})

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "modules" {
		t.Errorf("expected active 'modules', got %q", r.Active().Title())
	}
}

func TestUpdateOnlyReachesActive(t *testing.T) {
	s1 := &stubScreen{title: "modules"}
	s2 := &stubScreen{title: "trail"}
	r := New(s1)
	r.Push(s2)

	r.Update("tick")

	if len(s1.seen) != 0 {
		t.Errorf("bottom screen got %d messages, want 0", len(s1.seen))
	}
	if len(s2.seen) != 1 {
		t.Errorf("active screen got %d messages, want 1", len(s2.seen))
	}
}

func TestBroadcast(t *testing.T) {
	s1 := &stubScreen{title: "modules"}
	s2 := &stubScreen{title: "trail"}
	r := New(s1)
	r.Push(s2)

	r.Broadcast(screen.RefreshMsg{})

	for _, s := range []*stubScreen{s1, s2} {
		if len(s.seen) != 1 {
			t.Fatalf("%s got %d messages, want 1", s.title, len(s.seen))
		}
		if _, ok := s.seen[0].(screen.RefreshMsg); !ok {
			t.Errorf("%s got %T, want RefreshMsg", s.title, s.seen[0])
		}
	}
}

func TestView(t *testing.T) {
	r := New(&stubScreen{title: "modules"})
	if got := r.View(80, 24); got != "modules" {
		t.Errorf("View = %q, want %q", got, "modules")
	}
}
