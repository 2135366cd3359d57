package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/store"
)

// Color palette
var (
	colorDone      = lipgloss.Color("#9ECE6A")
	colorMissed    = lipgloss.Color("#F7768E")
	colorOpen      = lipgloss.Color("#E0AF68")
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorAccent    = lipgloss.Color("#FF6B6B")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

// Task states, in the order a task moves through them.
const (
	taskUpcoming = iota
	taskOpen
	taskDone
	taskMissed
)

var taskMarks = [...]struct {
	text  string
	style lipgloss.Style
}{
	taskUpcoming: {"  upcoming", lipgloss.NewStyle().Foreground(colorMuted)},
	taskOpen:     {"● open", lipgloss.NewStyle().Foreground(colorOpen).Bold(true)},
	taskDone:     {"✓ done", lipgloss.NewStyle().Foreground(colorDone)},
	taskMissed:   {"✗ missed", lipgloss.NewStyle().Foreground(colorMissed)},
}

func taskState(t store.Task, now time.Time) int {
	switch {
	case t.Completed:
		return taskDone
	case !now.Before(t.End):
		return taskMissed
	case !now.Before(t.Start):
		return taskOpen
	}
	return taskUpcoming
}

func taskMark(t store.Task, now time.Time) string {
	m := taskMarks[taskState(t, now)]
	return m.style.Render(m.text)
}

// Bar colors for habits, assigned by habit ID.
var habitPalette = []lipgloss.Color{colorPrimary, colorSecondary, colorAccent, colorWarning, colorSuccess, colorHighlight}

func habitColor(id int64) lipgloss.Color {
	return habitPalette[int(id%int64(len(habitPalette)))]
}
