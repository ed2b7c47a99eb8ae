package progress

import "github.com/charmbracelet/lipgloss"

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var modeBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

var (
	stepPending = lipgloss.NewStyle().
			Faint(true)

	stepCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	stepPassed = lipgloss.NewStyle().
			Foreground(colorGreen)

	stepFailed = lipgloss.NewStyle().
			Foreground(colorRed)

	stepWarned = lipgloss.NewStyle().
			Foreground(colorYellow)

	stepSkipped = lipgloss.NewStyle().
			Faint(true)

	stepDetail = lipgloss.NewStyle().
			Foreground(colorDim)
)

var spinnerStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var (
	summaryStatStyle = lipgloss.NewStyle().
				Foreground(colorWhite)

	summaryPassedStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	summaryFailedStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	abortBannerStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)
)
