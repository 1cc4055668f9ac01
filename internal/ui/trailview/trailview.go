// Package trailview renders a module trail for the terminal.
package trailview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/ui/components"
	"github.com/abhisek/trailquest/internal/ui/theme"
)

// NoSelection renders the trail without a cursor.
const NoSelection = -1

// Marker returns the glyph for a phase on the trail.
func Marker(tp progression.TrailPhase) string {
	switch {
	case tp.IsLocked:
		return "🔒"
	case tp.Status == progression.StatusCompleted:
		return "✔"
	case tp.Status == progression.StatusInProgress:
		return "▶"
	}
	return "○"
}

func style(tp progression.TrailPhase) lipgloss.Style {
	switch {
	case tp.IsLocked:
		return theme.PhaseLocked
	case tp.Status == progression.StatusCompleted:
		return theme.PhaseCompleted
	case tp.Status == progression.StatusInProgress:
		return theme.PhaseInProgress
	}
	return theme.PhaseAvailable
}

// Render draws the module title, progress bar and the phases joined by a
// path. selected highlights one phase; pass NoSelection for none.
func Render(v *engine.TrailView, selected, width int) string {
	if width <= 0 {
		width = 60
	}
	phases := make(map[string]progression.Phase, len(v.Module.Phases))
	for _, p := range v.Module.Phases {
		phases[p.ID] = p
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(v.Module.Title))
	b.WriteString("  " + theme.Subtitle.Render(v.Module.Version))
	b.WriteString("\n\n")
	bar := components.ProgressBar{
		Label: "Progress",
		Done:  v.Trail.CompletedCount(),
		Total: len(v.Trail.Phases),
		Width: min(width, 60),
	}
	b.WriteString(bar.View())
	b.WriteString("\n\n")

	for i, tp := range v.Trail.Phases {
		p := phases[tp.PhaseID]
		cursor := "  "
		if i == selected {
			cursor = theme.Selected.Render("▸ ")
		}
		title := p.Title
		if title == "" {
			title = tp.PhaseID
		}
		line := fmt.Sprintf("%s %s  %s", Marker(tp), title, theme.Subtitle.Render(string(p.Kind)))
		b.WriteString(cursor + style(tp).Render(line))
		if !tp.IsLocked && tp.Status != progression.StatusCompleted {
			b.WriteString("  " + theme.XP.Render(fmt.Sprintf("+%d XP", p.XP)))
		}
		b.WriteString("\n")
		if i < len(v.Trail.Phases)-1 {
			b.WriteString("   " + theme.PhaseLocked.Render("│") + "\n")
		}
	}

	if v.Trail.ModuleComplete {
		b.WriteString("\n" + theme.PhaseCompleted.Render("Module complete!"))
	}
	return b.String()
}
