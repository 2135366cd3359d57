package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	timeLayout = "2006-01-02 15:04"
)

func checkFormat(f string) error {
	if f != formatTable && f != formatJSON {
		return fmt.Errorf("invalid format %q: use table or json", f)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func notice(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

func localTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printHabits(w io.Writer, format string, habits []store.Habit) error {
	if format == formatJSON {
		return writeJSON(w, orEmpty(habits))
	}
	if len(habits) == 0 {
		notice(w, "No habits found")
		return nil
	}
	rows := make([][]string, 0, len(habits))
	for _, h := range habits {
		rows = append(rows, []string{
			strconv.FormatInt(h.ID, 10), h.Name, h.Description,
			h.Interval.String(), h.Lifetime.String(), yesNo(h.Active),
			localTime(h.Start), localTime(h.End),
		})
	}
	renderTable(w, []string{"ID", "NAME", "DESCRIPTION", "INTERVAL", "LIFETIME", "ACTIVE", "START", "END"}, rows)
	return nil
}

func printTasks(w io.Writer, format string, tasks []store.Task) error {
	if format == formatJSON {
		return writeJSON(w, orEmpty(tasks))
	}
	if len(tasks) == 0 {
		notice(w, "No tasks found")
		return nil
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		completedAt := "-"
		if t.CompletedAt != nil {
			completedAt = localTime(*t.CompletedAt)
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10), strconv.FormatInt(t.HabitID, 10), strconv.Itoa(t.HabitOrder),
			localTime(t.Start), localTime(t.End), yesNo(t.Completed), completedAt,
		})
	}
	renderTable(w, []string{"ID", "HABIT", "ORDER", "START", "END", "DONE", "COMPLETED AT"}, rows)
	return nil
}

func printActive(w io.Writer, format string, active []store.ActiveTask) error {
	if format == formatJSON {
		return writeJSON(w, orEmpty(active))
	}
	if len(active) == 0 {
		notice(w, "Nothing to do right now")
		return nil
	}
	rows := make([][]string, 0, len(active))
	for _, a := range active {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10), a.HabitName, a.HabitDescription,
			strconv.Itoa(a.HabitOrder), localTime(a.End),
		})
	}
	renderTable(w, []string{"ID", "HABIT", "DESCRIPTION", "ORDER", "DUE"}, rows)
	return nil
}

func printStreaks(w io.Writer, format string, streaks []streak.Streak) error {
	if format == formatJSON {
		return writeJSON(w, orEmpty(streaks))
	}
	if len(streaks) == 0 {
		notice(w, "No streaks found")
		return nil
	}
	rows := make([][]string, 0, len(streaks))
	for _, s := range streaks {
		ids := ""
		for i, id := range s.TaskIDs {
			if i > 0 {
				ids += ","
			}
			ids += strconv.FormatInt(id, 10)
		}
		rows = append(rows, []string{strconv.FormatInt(s.HabitID, 10), strconv.Itoa(s.Length), ids})
	}
	renderTable(w, []string{"HABIT", "STREAK", "TASKS"}, rows)
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
