package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/streak"
)

// Kind names an analytics report.
type Kind string

const (
	KindCurrentHabits  Kind = "list-current-habits"
	KindLongestStreaks Kind = "list-longest-streaks"
	KindLongestStreak  Kind = "get-longest-streak"
)

// Kinds lists the supported reports.
var Kinds = []Kind{KindCurrentHabits, KindLongestStreaks, KindLongestStreak}

// ParseKind accepts the dashed names as well as their underscore spellings.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errs.Invalid("kind", "unknown analytics kind %q", s)
}

type AnalyticsQuery struct {
	Kind     Kind
	HabitID  *int64
	Interval *duration.Duration // list-current-habits only
	Streak   *streak.Predicate  // streak reports only
}

// AnalyticsResult carries Habits for list-current-habits and Streaks for the
// streak reports.
type AnalyticsResult struct {
	Kind    Kind            `json:"kind"`
	Habits  []store.Habit   `json:"habits,omitempty"`
	Streaks []streak.Streak `json:"streaks,omitempty"`
}

func (s *Service) Analytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsResult, error) {
	res := &AnalyticsResult{Kind: q.Kind}
	switch q.Kind {
	case KindCurrentHabits:
		habits, err := s.currentHabits(ctx, q)
		if err != nil {
			return nil, err
		}
		res.Habits = habits
	case KindLongestStreaks, KindLongestStreak:
		streaks, err := s.streaks(ctx, q)
		if err != nil {
			return nil, err
		}
		if q.Kind == KindLongestStreak {
			streaks = streak.Top(streaks, 1)
		}
		res.Streaks = streaks
	default:
		return nil, errs.Invalid("kind", "unknown analytics kind %q", q.Kind)
	}
	return res, nil
}

func (s *Service) currentHabits(ctx context.Context, q AnalyticsQuery) ([]store.Habit, error) {
	f := store.HabitFilter{Active: store.Equals(true)}
	if q.HabitID != nil {
		f.ID = store.Equals(*q.HabitID)
	}
	habits, err := s.store.ListHabits(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list current habits: %w", err)
	}
	if q.Interval == nil {
		return habits, nil
	}
	// P1D and PT24H spell different intervals, so comparison is by component
	// rather than by stored text.
	matched := habits[:0]
	for _, h := range habits {
		if h.Interval.Equal(*q.Interval) {
			matched = append(matched, h)
		}
	}
	return matched, nil
}

// streaks returns the streaks of completed tasks, longest first, optionally
// limited to one habit and filtered by length.
func (s *Service) streaks(ctx context.Context, q AnalyticsQuery) ([]streak.Streak, error) {
	f := store.TaskFilter{Completed: store.Equals(true)}
	if q.HabitID != nil {
		f.HabitID = store.Equals(*q.HabitID)
	}
	tasks, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	streaks := streak.Longest(streak.Compute(tasks))
	if q.Streak != nil {
		streaks = streak.Filter(streaks, *q.Streak)
	}
	return streaks, nil
}
