package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
	"github.com/sadopc/habitr/internal/tracker"
)

// tableRows caps the streak table below the chart.
const tableRows = 10

type streaksModel struct {
	svc    *tracker.Service
	width  int
	height int

	streaks []streak.Streak // longest first
	names   map[int64]string

	chart barchart.Model
}

func newStreaksModel(svc *tracker.Service) streaksModel {
	return streaksModel{
		svc:   svc,
		names: map[int64]string{},
		chart: barchart.New(60, 12),
	}
}

func (r *streaksModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type streaksDataMsg struct {
	streaks []streak.Streak
	names   map[int64]string
}

func (r streaksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		res, err := r.svc.Analytics(ctx, tracker.AnalyticsQuery{Kind: tracker.KindLongestStreaks})
		if err != nil {
			return errStatus("Streaks error: %v", err)
		}
		habits, err := r.svc.ListHabits(ctx, store.HabitFilter{})
		if err != nil {
			return errStatus("Streaks error: %v", err)
		}
		names := make(map[int64]string, len(habits))
		for _, h := range habits {
			names[h.ID] = h.Name
		}
		return streaksDataMsg{streaks: res.Streaks, names: names}
	}
}

func (r streaksModel) update(msg tea.Msg) (streaksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case streaksDataMsg:
		r.streaks = msg.streaks
		r.names = msg.names
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Refresh) {
			return r, r.refresh()
		}
	}
	return r, nil
}

// best returns each habit's longest streak in first-seen order. streaks is
// already longest first, so the first streak seen per habit is its best.
func best(streaks []streak.Streak) []streak.Streak {
	seen := make(map[int64]bool)
	var out []streak.Streak
	for _, s := range streaks {
		if seen[s.HabitID] {
			continue
		}
		seen[s.HabitID] = true
		out = append(out, s)
	}
	return out
}

func (r streaksModel) name(id int64) string {
	if n, ok := r.names[id]; ok {
		return n
	}
	return fmt.Sprintf("habit %d", id)
}

func (r *streaksModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, s := range best(r.streaks) {
		bars = append(bars, barchart.BarData{
			Label: r.name(s.HabitID),
			Values: []barchart.BarValue{{
				Name:  r.name(s.HabitID),
				Value: float64(s.Length),
				Style: lipgloss.NewStyle().Foreground(habitColor(s.HabitID)),
			}},
		})
	}
	if len(bars) == 0 {
		return
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r streaksModel) view() string {
	w := r.width - 4
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Streaks"), "  ", mutedStyle.Render("runs of consecutive completed tasks"),
	)

	if len(r.streaks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  No completed tasks yet."),
		))
	}

	nav := mutedStyle.Render("  r: refresh")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r streaksModel) renderTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %8s  %s", "Habit", "Length", "Tasks")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, s := range streak.Top(r.streaks, tableRows) {
		dot := lipgloss.NewStyle().Foreground(habitColor(s.HabitID)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-22s %8d  %s",
			dot, r.name(s.HabitID), s.Length, taskRange(s.TaskIDs),
		))
	}

	return strings.Join(rows, "\n")
}

func taskRange(ids []int64) string {
	switch len(ids) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("#%d", ids[0])
	}
	return fmt.Sprintf("#%d…#%d", ids[0], ids[len(ids)-1])
}
