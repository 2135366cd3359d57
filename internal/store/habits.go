package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/habitr/internal/errs"
)

const habitColumns = `id, name, description, interval, lifetime, active, start_time, end_time, created_at, updated_at`

// InsertHabit stores h and returns it with the assigned ID.
func (c conn) InsertHabit(ctx context.Context, h Habit) (*Habit, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO habits (name, description, interval, lifetime, active, start_time, end_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Name, h.Description, h.Interval, h.Lifetime, encodeBool(h.Active),
		formatTime(h.Start), formatTime(h.End), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	return c.GetHabit(ctx, id)
}

func (c conn) GetHabit(ctx context.Context, id int64) (*Habit, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &errs.NotFoundError{Kind: "habit", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get habit %d: %w", id, err)
	}
	return h, nil
}

func (c conn) ListHabits(ctx context.Context, f HabitFilter) ([]Habit, error) {
	var w whereBuilder
	addCond(&w, "id", f.ID, same[int64])
	addCond(&w, "name", f.Name, same[string])
	addCond(&w, "description", f.Description, same[string])
	addCond(&w, "interval", f.Interval, same[string])
	addCond(&w, "lifetime", f.Lifetime, same[string])
	addCond(&w, "active", f.Active, encodeBool)
	addCond(&w, "start_time", f.Start, encodeTime)
	addCond(&w, "end_time", f.End, encodeTime)

	rows, err := c.q.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits`+w.sql()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// UpdateHabit overwrites every mutable column of the habit row.
func (c conn) UpdateHabit(ctx context.Context, h Habit) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := c.q.ExecContext(ctx,
		`UPDATE habits SET name = ?, description = ?, interval = ?, lifetime = ?, active = ?,
		 start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`,
		h.Name, h.Description, h.Interval, h.Lifetime, encodeBool(h.Active),
		formatTime(h.Start), formatTime(h.End), now, h.ID,
	)
	if err != nil {
		return fmt.Errorf("update habit %d: %w", h.ID, err)
	}
	return requireRow(res, "habit", h.ID)
}

// DeleteHabit removes the habit and all of its tasks.
func (c conn) DeleteHabit(ctx context.Context, id int64) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM tasks WHERE habit_id = ?`, id); err != nil {
		return fmt.Errorf("delete tasks of habit %d: %w", id, err)
	}
	res, err := c.q.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit %d: %w", id, err)
	}
	return requireRow(res, "habit", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(r rowScanner) (*Habit, error) {
	h := &Habit{}
	var active int
	var start, end, createdAt, updatedAt string
	err := r.Scan(&h.ID, &h.Name, &h.Description, &h.Interval, &h.Lifetime, &active,
		&start, &end, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	h.Active = active == 1
	if h.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if h.End, err = parseTime(end); err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", kind, id, err)
	}
	if n == 0 {
		return &errs.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
