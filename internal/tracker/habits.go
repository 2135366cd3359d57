package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/metrics"
	"github.com/sadopc/habitr/internal/schedule"
	"github.com/sadopc/habitr/internal/store"
)

// CreateHabitInput holds the fields of a new habit. Active defaults to true.
type CreateHabitInput struct {
	Name        string
	Description string
	Interval    duration.Duration
	Lifetime    duration.Duration
	Active      *bool
	Start       time.Time
	End         time.Time
}

// UpdateHabitInput holds a partial update: nil fields keep their current
// value.
type UpdateHabitInput struct {
	Name        *string
	Description *string
	Interval    *duration.Duration
	Lifetime    *duration.Duration
	Active      *bool
	Start       *time.Time
	End         *time.Time

	// ResumeAt regenerates from this instant instead of now. It must not be
	// in the past.
	ResumeAt *time.Time
}

func (in UpdateHabitInput) apply(h store.Habit) store.Habit {
	if in.Name != nil {
		h.Name = *in.Name
	}
	if in.Description != nil {
		h.Description = *in.Description
	}
	if in.Interval != nil {
		h.Interval = *in.Interval
	}
	if in.Lifetime != nil {
		h.Lifetime = *in.Lifetime
	}
	if in.Active != nil {
		h.Active = *in.Active
	}
	if in.Start != nil {
		h.Start = in.Start.UTC()
	}
	if in.End != nil {
		h.End = in.End.UTC()
	}
	return h
}

// Instants are stored at second precision in four-digit years.
const (
	minYear = 1
	maxYear = 9999
)

func validateHabit(h store.Habit) error {
	switch {
	case strings.TrimSpace(h.Name) == "":
		return errs.Invalid("name", "is required")
	case !h.Interval.Positive():
		return errs.Invalid("interval", "must be a positive duration, got %s", h.Interval)
	case !h.Interval.WholeSeconds():
		return errs.Invalid("interval", "must be a whole number of seconds, got %s", h.Interval)
	case !h.Lifetime.Positive():
		return errs.Invalid("lifetime", "must be a positive duration, got %s", h.Lifetime)
	case !h.Lifetime.WholeSeconds():
		return errs.Invalid("lifetime", "must be a whole number of seconds, got %s", h.Lifetime)
	case h.Start.IsZero():
		return errs.Invalid("start", "is required")
	case h.End.IsZero():
		return errs.Invalid("end", "is required")
	case !h.Start.Before(h.End):
		return errs.Invalid("end", "must be after start (%s)", h.Start.Format(time.RFC3339))
	case h.Start.Year() < minYear:
		return errs.Invalid("start", "must not be before year %d", minYear)
	}
	// The last task ends before End + Lifetime.
	if last := h.Lifetime.AddTo(h.End); last.Year() > maxYear || last.Before(h.End) {
		return errs.Invalid("lifetime", "tasks would end after year %d", maxYear)
	}
	return nil
}

func (in CreateHabitInput) draft() (store.Habit, error) {
	h := store.Habit{
		Name:        in.Name,
		Description: in.Description,
		Interval:    in.Interval,
		Lifetime:    in.Lifetime,
		Active:      true,
		Start:       in.Start.UTC().Truncate(time.Second),
		End:         in.End.UTC().Truncate(time.Second),
	}
	if in.Active != nil {
		h.Active = *in.Active
	}
	return h, validateHabit(h)
}

// PreviewHabit validates in and reports how many tasks CreateHabit would
// generate for it, without writing anything.
func (s *Service) PreviewHabit(in CreateHabitInput) (int, error) {
	h, err := in.draft()
	if err != nil {
		return 0, err
	}
	return schedule.Count(h, h.Start, s.maxTasks)
}

// CreateHabit stores a habit and all of its tasks from start to end, numbered
// from 1, in one transaction.
func (s *Service) CreateHabit(ctx context.Context, in CreateHabitInput) (*store.Habit, error) {
	draft, err := in.draft()
	if err != nil {
		return nil, err
	}

	var created *store.Habit
	var generated int
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		h, err := tx.InsertHabit(ctx, draft)
		if err != nil {
			return err
		}
		drafts, err := schedule.Generate(*h, h.Start, 0, s.maxTasks)
		if err != nil {
			return err
		}
		if _, err := tx.InsertTasks(ctx, drafts); err != nil {
			return err
		}
		created, generated = h, len(drafts)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	metrics.RecordGenerated("create", generated)
	return created, nil
}

// UpdateHabit merges in into the stored habit and reschedules it. Tasks that
// started at or before now are left exactly as they are; later tasks are
// replaced by a fresh schedule from now (or in.ResumeAt) whose orders
// continue after the habit's highest remaining order.
func (s *Service) UpdateHabit(ctx context.Context, id int64, in UpdateHabitInput) (*store.Habit, error) {
	unlock, err := s.locks.acquire(ctx, id, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *store.Habit
	var purged int64
	var generated int
	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		// now is read under the lock so that anything that started while
		// waiting counts as history.
		now := s.Now().Truncate(time.Second)
		from := now
		if in.ResumeAt != nil {
			if in.ResumeAt.Before(now) {
				return errs.Invalid("resume_at", "must not be in the past")
			}
			from = in.ResumeAt.UTC().Truncate(time.Second)
		}

		existing, err := tx.GetHabit(ctx, id)
		if err != nil {
			return err
		}
		merged := in.apply(*existing)
		merged.Start = merged.Start.Truncate(time.Second)
		merged.End = merged.End.Truncate(time.Second)
		if err := validateHabit(merged); err != nil {
			return err
		}
		if err := tx.UpdateHabit(ctx, merged); err != nil {
			return err
		}

		if purged, err = tx.DeleteTasksAfter(ctx, id, now); err != nil {
			return err
		}
		lastOrder, err := tx.MaxHabitOrder(ctx, id)
		if err != nil {
			return err
		}
		drafts, err := schedule.Generate(merged, from, lastOrder, s.maxTasks)
		if err != nil {
			return err
		}
		if drafts, err = dropFrozenStart(ctx, tx, id, lastOrder, drafts); err != nil {
			return err
		}
		if _, err := tx.InsertTasks(ctx, drafts); err != nil {
			return err
		}
		generated = len(drafts)

		updated, err = tx.GetHabit(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update habit %d: %w", id, err)
	}
	metrics.TasksPurged.Add(float64(purged))
	metrics.RecordGenerated("update", generated)
	return updated, nil
}

// dropFrozenStart removes the first draft when a kept task already starts at
// the same instant, so starts stay strictly increasing with order.
func dropFrozenStart(ctx context.Context, tx *store.Tx, habitID int64, lastOrder int, drafts []store.Task) ([]store.Task, error) {
	if lastOrder == 0 || len(drafts) == 0 {
		return drafts, nil
	}
	last, err := tx.ListTasks(ctx, store.TaskFilter{
		HabitID:    store.Equals(habitID),
		HabitOrder: store.Equals(lastOrder),
	})
	if err != nil {
		return nil, err
	}
	if len(last) == 0 || !drafts[0].Start.Equal(last[0].Start) {
		return drafts, nil
	}
	drafts = drafts[1:]
	for i := range drafts {
		drafts[i].HabitOrder--
	}
	return drafts, nil
}

// DeleteHabit removes the habit and every task it owns.
func (s *Service) DeleteHabit(ctx context.Context, id int64) error {
	unlock, err := s.locks.acquire(ctx, id, s.lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteHabit(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete habit %d: %w", id, err)
	}
	return nil
}
