// Package schedule expands a habit's recurrence into task drafts.
//
// Generation is a pure function of its arguments: it performs no I/O, reads
// no clock and returns the same drafts for the same inputs. Persisting the
// drafts is the caller's job.
package schedule

import (
	"time"

	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/store"
)

// Generate returns the task drafts for h from the instant from onward.
//
// The first draft starts at the later of from and h.Start and is numbered
// startOrder+1; each following draft starts one interval later and takes the
// next order, until a start would reach h.End. Each draft lasts h.Lifetime.
// A from at or after h.End yields no drafts.
//
// limit bounds the number of drafts; a schedule that would exceed it fails
// with *errs.ScheduleOverflowError. A limit of zero or less disables the check.
func Generate(h store.Habit, from time.Time, startOrder, limit int) ([]store.Task, error) {
	if err := checkDurations(h); err != nil {
		return nil, err
	}
	if startOrder < 0 {
		return nil, errs.Invalid("start order", "must not be negative, got %d", startOrder)
	}

	var drafts []store.Task
	order := startOrder + 1
	for current := firstStart(h, from); current.Before(h.End); current = h.Interval.AddTo(current) {
		if limit > 0 && len(drafts) == limit {
			return nil, &errs.ScheduleOverflowError{HabitID: h.ID, Limit: limit}
		}
		drafts = append(drafts, store.Task{
			HabitID:    h.ID,
			HabitOrder: order,
			Start:      current,
			End:        h.Lifetime.AddTo(current),
		})
		order++
	}
	return drafts, nil
}

func firstStart(h store.Habit, from time.Time) time.Time {
	if from.After(h.Start) {
		return from
	}
	return h.Start
}

// checkDurations rejects schedules whose loop would never advance.
func checkDurations(h store.Habit) error {
	if !h.Interval.Positive() {
		return errs.Invalid("interval", "must be a positive duration, got %s", h.Interval)
	}
	if !h.Lifetime.Positive() {
		return errs.Invalid("lifetime", "must be a positive duration, got %s", h.Lifetime)
	}
	return nil
}

// Count returns how many drafts Generate would produce for the same
// arguments, without building them. It fails the same way Generate does.
func Count(h store.Habit, from time.Time, limit int) (int, error) {
	if err := checkDurations(h); err != nil {
		return 0, err
	}
	n := 0
	for current := firstStart(h, from); current.Before(h.End); current = h.Interval.AddTo(current) {
		if limit > 0 && n == limit {
			return 0, &errs.ScheduleOverflowError{HabitID: h.ID, Limit: limit}
		}
		n++
	}
	return n, nil
}
