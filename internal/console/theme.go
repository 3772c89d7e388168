package console

import "charm.land/lipgloss/v2"

// Palette
var (
	colorPrimary   = lipgloss.Color("#8B5CF6")
	colorSecondary = lipgloss.Color("#14B8A6")
	colorAccent    = lipgloss.Color("#F97316")
	colorSuccess   = lipgloss.Color("#22C55E")
	colorError     = lipgloss.Color("#F43F5E")
	colorText      = lipgloss.Color("#F8FAFC")
	colorDim       = lipgloss.Color("#94A3B8")
	colorBorder    = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	questionStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(colorText)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	chosenStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	timerStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
)
