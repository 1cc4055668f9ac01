package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/ui/theme"
)

// ProgressBar draws completion as a filled bar followed by "n/m · p%".
type ProgressBar struct {
	Label string
	Done  int
	Total int
	Width int
}

// Percent is Done over Total in [0, 100]. An empty bar is 0%.
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total)*100, 0), 100)
}

func (p ProgressBar) View() string {
	var prefix string
	if p.Label != "" {
		prefix = theme.Body.Render(p.Label) + "  "
	}
	suffix := theme.Subtitle.Render(fmt.Sprintf("  %d/%d · %.0f%%", p.Done, p.Total, p.Percent()))

	barWidth := max(p.Width-lipgloss.Width(prefix)-lipgloss.Width(suffix), 4)
	filled := int(float64(barWidth) * p.Percent() / 100)

	return prefix +
		theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		suffix
}
