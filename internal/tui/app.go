package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/export"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
	"github.com/sadopc/habitr/internal/tracker"
)

// App is the root Bubble Tea model.
type App struct {
	svc    *tracker.Service
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today   todayModel
	habits  habitsModel
	streaks streaksModel

	help      help.Model
	status    string
	statusErr bool
	exportDir string
}

func NewApp(svc *tracker.Service) App {
	h := help.New()
	h.ShowAll = false

	home, _ := os.UserHomeDir()

	return App{
		svc:        svc,
		activeView: viewToday,
		today:      newTodayModel(svc),
		habits:     newHabitsModel(svc),
		streaks:    newStreaksModel(svc),
		help:       h,
		exportDir:  home,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.today.Init(),
		a.habits.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.habits.setSize(a.width, contentHeight)
		a.streaks.setSize(a.width, contentHeight)
		a.streaks.buildChart()
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewToday
			return a, a.today.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHabits
			return a, a.habits.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStreaks
			return a, a.streaks.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// Always route ticks to the open-task countdown
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case taskCompletedMsg:
		// Both views list tasks that may have changed.
		var todayCmd, habitsCmd tea.Cmd
		a.today, todayCmd = a.today.update(msg)
		a.habits, habitsCmd = a.habits.update(msg)
		return a, tea.Batch(todayCmd, habitsCmd)

	case habitSavedMsg, habitDeletedMsg:
		var cmd tea.Cmd
		a.habits, cmd = a.habits.update(msg)
		return a, tea.Batch(cmd, a.today.loadData())

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case todayDataMsg:
		a.today, cmd = a.today.update(msg)
		return a, cmd
	case habitsDataMsg, habitTasksMsg:
		a.habits, cmd = a.habits.update(msg)
		return a, cmd
	case streaksDataMsg:
		a.streaks, cmd = a.streaks.update(msg)
		return a, cmd
	}

	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewHabits:
		a.habits, cmd = a.habits.update(msg)
	case viewStreaks:
		a.streaks, cmd = a.streaks.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewHabits && a.habits.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.loadData()
	case viewHabits:
		return a.habits.refresh()
	case viewStreaks:
		return a.streaks.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewHabits:
		content = a.habits.view()
	case viewStreaks:
		content = a.streaks.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("habitr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Open-task indicator in footer
	open := ""
	if n := len(a.today.tasks); n > 0 {
		open = highlightStyle.Render(fmt.Sprintf(" ● %d open", n))
	}

	left := footerStyle.Render(helpView)
	right := open + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Format"), "")
	for i, f := range exportFormats {
		cursor, style := cursorPrefix(i == a.exportCursor)
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		tasks, err := a.svc.ListTasks(ctx, store.TaskFilter{})
		if err != nil {
			return errStatus("Export error: %v", err)
		}

		// Build habit lookup
		hlist, err := a.svc.ListHabits(ctx, store.HabitFilter{})
		if err != nil {
			return errStatus("Export error: %v", err)
		}
		habits := make(map[int64]*store.Habit, len(hlist))
		for i := range hlist {
			habits[hlist[i].ID] = &hlist[i]
		}

		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(a.exportDir, fmt.Sprintf("habitr-export-%s.csv", dateStr))
			if err := export.ToCSV(tasks, habits, path); err != nil {
				return errStatus("CSV error: %v", err)
			}
		} else {
			var completed []store.Task
			for _, t := range tasks {
				if t.Completed {
					completed = append(completed, t)
				}
			}
			path = filepath.Join(a.exportDir, fmt.Sprintf("habitr-export-%s.json", dateStr))
			if err := export.ToJSON(tasks, habits, streak.Longest(streak.Compute(completed)), path); err != nil {
				return errStatus("JSON error: %v", err)
			}
		}

		return exportDoneMsg{path: path}
	}
}
