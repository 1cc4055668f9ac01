package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/notify"
	"github.com/abhisek/trailquest/internal/ui/theme"
)

// Toast renders a reward notification as a card.
type Toast struct {
	Notification notify.Notification
	// Queued is the number of notifications waiting behind this one.
	Queued int
}

func (t Toast) View() string {
	n := t.Notification
	lines := []string{theme.Title.Render(n.Title)}
	if n.Message != "" {
		lines = append(lines, theme.Body.Render(n.Message))
	}

	var reward []string
	if n.XP > 0 {
		reward = append(reward, theme.XP.Render(fmt.Sprintf("+%d XP", n.XP)))
	}
	if n.Coins > 0 {
		reward = append(reward, theme.Coins.Render(fmt.Sprintf("+%d coins", n.Coins)))
	}
	if len(reward) > 0 {
		lines = append(lines, "", strings.Join(reward, "   "))
	}
	if n.BadgeID != "" {
		lines = append(lines, theme.Coins.Render("Badge: "+n.BadgeID))
	}

	hint := "Enter to continue"
	if t.Queued > 0 {
		hint = fmt.Sprintf("%s (%d more)", hint, t.Queued)
	}
	lines = append(lines, "", theme.Hint.Render(hint))

	return theme.Toast.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}
