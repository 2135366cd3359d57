package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/habitr/internal/store"
)

// ToCSV writes one row per task, naming the habit it belongs to.
func ToCSV(tasks []store.Task, habits map[int64]*store.Habit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Habit", "Order", "Start", "End", "Window", "Completed", "Completed At"}); err != nil {
		return err
	}

	for _, t := range tasks {
		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.Local().Format(time.RFC3339)
		}

		row := []string{
			strconv.FormatInt(t.ID, 10),
			habitName(habits, t.HabitID),
			strconv.Itoa(t.HabitOrder),
			t.Start.Local().Format(time.RFC3339),
			t.End.Local().Format(time.RFC3339),
			formatWindow(t.End.Sub(t.Start)),
			strconv.FormatBool(t.Completed),
			completedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func habitName(habits map[int64]*store.Habit, id int64) string {
	if h, ok := habits[id]; ok {
		return h.Name
	}
	return "Unknown"
}

// formatWindow renders a task window as [Nd ]HH:MM:SS.
func formatWindow(d time.Duration) string {
	secs := int64(d / time.Second)
	days := secs / 86400
	h := (secs % 86400) / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
