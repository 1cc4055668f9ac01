package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Gold      = lipgloss.Color("#FACC15")
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	Locked    = lipgloss.Color("#475569")
	BgDark    = lipgloss.Color("#0F172A")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Trail phases
var (
	PhaseCompleted = lipgloss.NewStyle().
			Foreground(Success)

	PhaseInProgress = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	PhaseAvailable = lipgloss.NewStyle().
			Foreground(Text)

	PhaseLocked = lipgloss.NewStyle().
			Foreground(Locked)

	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Rewards
var (
	XP = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Coins = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	Toast = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 3)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
