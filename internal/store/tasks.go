package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/habitr/internal/errs"
)

const taskColumns = `id, habit_id, habit_order, start_time, end_time, completed, completed_at`

// InsertTasks stores a batch of task drafts and returns them with IDs assigned.
func (c conn) InsertTasks(ctx context.Context, tasks []Task) ([]Task, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	stmt, err := c.q.PrepareContext(ctx,
		`INSERT INTO tasks (habit_id, habit_order, start_time, end_time, completed, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert task: %w", err)
	}
	defer stmt.Close()

	out := make([]Task, len(tasks))
	for i, t := range tasks {
		var completedAt any
		if t.CompletedAt != nil {
			completedAt = formatTime(*t.CompletedAt)
		}
		res, err := stmt.ExecContext(ctx, t.HabitID, t.HabitOrder, formatTime(t.Start), formatTime(t.End),
			encodeBool(t.Completed), completedAt)
		if err != nil {
			return nil, fmt.Errorf("insert task %d of habit %d: %w", t.HabitOrder, t.HabitID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		t.ID = id
		out[i] = t
	}
	return out, nil
}

func (c conn) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &errs.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// ListTasks returns matching tasks ordered by habit and habit order.
func (c conn) ListTasks(ctx context.Context, f TaskFilter) ([]Task, error) {
	var w whereBuilder
	addCond(&w, "id", f.ID, same[int64])
	addCond(&w, "habit_id", f.HabitID, same[int64])
	addCond(&w, "habit_order", f.HabitOrder, same[int])
	addCond(&w, "completed", f.Completed, encodeBool)
	addCond(&w, "start_time", f.Start, encodeTime)
	addCond(&w, "end_time", f.End, encodeTime)

	query := `SELECT ` + taskColumns + ` FROM tasks` + w.sql() + ` ORDER BY habit_id, habit_order`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := c.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// DeleteTasksAfter removes the habit's tasks that start strictly after instant
// and reports how many were removed.
func (c conn) DeleteTasksAfter(ctx context.Context, habitID int64, instant time.Time) (int64, error) {
	res, err := c.q.ExecContext(ctx,
		`DELETE FROM tasks WHERE habit_id = ? AND start_time > ?`,
		habitID, formatTime(instant),
	)
	if err != nil {
		return 0, fmt.Errorf("delete future tasks of habit %d: %w", habitID, err)
	}
	return res.RowsAffected()
}

// MaxHabitOrder returns the highest habit_order among the habit's tasks, or 0
// when it has none.
func (c conn) MaxHabitOrder(ctx context.Context, habitID int64) (int, error) {
	var order int
	err := c.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(habit_order), 0) FROM tasks WHERE habit_id = ?`, habitID,
	).Scan(&order)
	if err != nil {
		return 0, fmt.Errorf("max habit order of habit %d: %w", habitID, err)
	}
	return order, nil
}

// CompleteTask marks the task completed at the given instant. Completing an
// already completed task leaves it unchanged.
func (c conn) CompleteTask(ctx context.Context, id int64, at time.Time) (*Task, error) {
	_, err := c.q.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ? AND completed = 0`,
		formatTime(at), id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete task %d: %w", id, err)
	}
	return c.GetTask(ctx, id)
}

// ListActiveTasks returns open tasks of active habits whose window contains now.
func (c conn) ListActiveTasks(ctx context.Context, now time.Time) ([]ActiveTask, error) {
	ts := formatTime(now)
	rows, err := c.q.QueryContext(ctx, `
		SELECT t.id, t.habit_id, t.habit_order, t.start_time, t.end_time, t.completed, t.completed_at,
		       h.name, h.description
		FROM tasks t
		JOIN habits h ON h.id = t.habit_id
		WHERE t.completed = 0 AND h.active = 1
		  AND t.start_time <= ? AND t.end_time > ?
		ORDER BY t.end_time, t.habit_id, t.habit_order`,
		ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	defer rows.Close()

	var active []ActiveTask
	for rows.Next() {
		var a ActiveTask
		var start, end string
		var completed int
		var completedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.HabitID, &a.HabitOrder, &start, &end, &completed, &completedAt,
			&a.HabitName, &a.HabitDescription); err != nil {
			return nil, err
		}
		if err := fillTask(&a.Task, start, end, completed, completedAt); err != nil {
			return nil, err
		}
		active = append(active, a)
	}
	return active, rows.Err()
}

func scanTask(r rowScanner) (*Task, error) {
	t := &Task{}
	var start, end string
	var completed int
	var completedAt sql.NullString
	if err := r.Scan(&t.ID, &t.HabitID, &t.HabitOrder, &start, &end, &completed, &completedAt); err != nil {
		return nil, err
	}
	if err := fillTask(t, start, end, completed, completedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func fillTask(t *Task, start, end string, completed int, completedAt sql.NullString) error {
	var err error
	if t.Start, err = parseTime(start); err != nil {
		return err
	}
	if t.End, err = parseTime(end); err != nil {
		return err
	}
	t.Completed = completed == 1
	if completedAt.Valid {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return err
		}
		t.CompletedAt = &at
	}
	return nil
}
