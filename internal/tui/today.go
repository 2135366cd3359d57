package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tracker"
)

// reloadEvery bounds how stale the list of open tasks may get while the view
// sits idle.
const reloadEvery = time.Minute

type todayModel struct {
	svc    *tracker.Service
	width  int
	height int

	now      time.Time
	loadedAt time.Time
	tasks    []store.ActiveTask
	cursor   int
}

func newTodayModel(svc *tracker.Service) todayModel {
	return todayModel{svc: svc, now: svc.Now()}
}

func (d todayModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	at    time.Time
	tasks []store.ActiveTask
}

type taskCompletedMsg struct {
	task *store.Task
}

func (d todayModel) loadData() tea.Cmd {
	return func() tea.Msg {
		tasks, err := d.svc.ActiveTasks(context.Background())
		if err != nil {
			return errStatus("Load error: %v", err)
		}
		return todayDataMsg{at: d.svc.Now(), tasks: tasks}
	}
}

func (d todayModel) complete() tea.Cmd {
	if d.cursor >= len(d.tasks) {
		return nil
	}
	id := d.tasks[d.cursor].ID
	return func() tea.Msg {
		task, err := d.svc.CompleteTask(context.Background(), id)
		if err != nil {
			return errStatus("Complete error: %v", err)
		}
		return taskCompletedMsg{task: task}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case todayDataMsg:
		d.tasks = msg.tasks
		d.loadedAt = msg.at
		d.now = msg.at
		if d.cursor >= len(d.tasks) {
			d.cursor = max(0, len(d.tasks)-1)
		}
		return d, nil

	case taskCompletedMsg:
		return d, tea.Batch(d.loadData(), func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Completed task %d", msg.task.ID)}
		})

	case tickMsg:
		d.now = time.Time(msg)
		if d.expired() || d.now.Sub(d.loadedAt) >= reloadEvery {
			return d, d.loadData()
		}
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.tasks)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Complete), key.Matches(msg, keys.Enter):
			return d, d.complete()
		case key.Matches(msg, keys.Refresh):
			return d, d.loadData()
		}
	}
	return d, nil
}

// expired reports whether a listed task's window has closed.
func (d todayModel) expired() bool {
	for _, t := range d.tasks {
		if !d.now.Before(t.End) {
			return true
		}
	}
	return false
}

func (d todayModel) view() string {
	w := d.width - 4
	title := titleStyle.Render("Open now")

	if len(d.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nothing to do right now. Press 2 to manage habits."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, subtitleStyle.Render(fmt.Sprintf("%d task(s) waiting", len(d.tasks))), "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %-6s %-14s %s", "Habit", "#", "Due", "Left")))

	for i, t := range d.tasks {
		cursor, style := cursorPrefix(i == d.cursor)
		left := t.End.Sub(d.now)
		leftStyle := successStyle
		if left < 15*time.Minute {
			leftStyle = warningStyle
		}
		row := style.Render(fmt.Sprintf("%s%-24s %-6d %-14s ", cursor, t.HabitName, t.HabitOrder, formatTime(t.End)))
		rows = append(rows, row+leftStyle.Render(formatDuration(left)))
		if t.HabitDescription != "" && i == d.cursor {
			rows = append(rows, mutedStyle.Render("    "+t.HabitDescription))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  c/enter: complete  r: refresh"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
