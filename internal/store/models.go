package store

import (
	"time"

	"github.com/sadopc/habitr/internal/duration"
)

type Habit struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Interval    duration.Duration `json:"interval"`
	Lifetime    duration.Duration `json:"lifetime"`
	Active      bool              `json:"active"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Task is one time-boxed occurrence of a habit. HabitOrder numbers a habit's
// tasks 1, 2, 3, ... in start order and is never reused.
type Task struct {
	ID          int64      `json:"id"`
	HabitID     int64      `json:"habit_id"`
	HabitOrder  int        `json:"habit_order"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ActiveTask is an open task together with the habit it belongs to.
type ActiveTask struct {
	Task
	HabitName        string `json:"name"`
	HabitDescription string `json:"description"`
}

// HabitFilter is used to filter habits in queries. Unset conditions match
// everything.
type HabitFilter struct {
	ID          Cond[int64]
	Name        Cond[string]
	Description Cond[string]
	Interval    Cond[string]
	Lifetime    Cond[string]
	Active      Cond[bool]
	Start       Cond[time.Time]
	End         Cond[time.Time]
}

// TaskFilter is used to filter tasks in queries.
type TaskFilter struct {
	ID         Cond[int64]
	HabitID    Cond[int64]
	HabitOrder Cond[int]
	Completed  Cond[bool]
	Start      Cond[time.Time]
	End        Cond[time.Time]
	Limit      int
}
