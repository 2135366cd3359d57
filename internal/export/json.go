package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Tasks      []jsonTask   `json:"tasks"`
	Streaks    []jsonStreak `json:"streaks"`
}

type jsonTask struct {
	ID          int64  `json:"id"`
	Habit       string `json:"habit"`
	HabitID     int64  `json:"habit_id"`
	HabitOrder  int    `json:"habit_order"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type jsonStreak struct {
	Habit   string  `json:"habit"`
	HabitID int64   `json:"habit_id"`
	Length  int     `json:"streak"`
	TaskIDs []int64 `json:"ids"`
}

// ToJSON writes the tasks and the streak report as one indented document.
func ToJSON(tasks []store.Task, habits map[int64]*store.Habit, streaks []streak.Streak, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
		Tasks:      []jsonTask{},
		Streaks:    []jsonStreak{},
	}

	for _, t := range tasks {
		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(time.RFC3339)
		}
		export.Tasks = append(export.Tasks, jsonTask{
			ID:          t.ID,
			Habit:       habitName(habits, t.HabitID),
			HabitID:     t.HabitID,
			HabitOrder:  t.HabitOrder,
			Start:       t.Start.UTC().Format(time.RFC3339),
			End:         t.End.UTC().Format(time.RFC3339),
			Completed:   t.Completed,
			CompletedAt: completedAt,
		})
	}
	for _, s := range streaks {
		export.Streaks = append(export.Streaks, jsonStreak{
			Habit:   habitName(habits, s.HabitID),
			HabitID: s.HabitID,
			Length:  s.Length,
			TaskIDs: s.TaskIDs,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
