// Package streak groups completed tasks into runs of consecutive habit orders.
package streak

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/store"
)

// Streak is a maximal run of one habit's tasks with consecutive habit orders.
type Streak struct {
	HabitID int64   `json:"habit_id"`
	Length  int     `json:"streak"`
	TaskIDs []int64 `json:"ids"`
}

// Compute groups tasks into streaks. Callers pass only completed tasks; no
// completion filtering happens here. The result is in (habit, order) order,
// which is also the tie-break order used by Longest. tasks is not modified.
func Compute(tasks []store.Task) []Streak {
	sorted := slices.Clone(tasks)
	slices.SortFunc(sorted, func(a, b store.Task) int {
		if a.HabitID != b.HabitID {
			return cmp.Compare(a.HabitID, b.HabitID)
		}
		return cmp.Compare(a.HabitOrder, b.HabitOrder)
	})

	var streaks []Streak
	lastOrder := 0
	for _, t := range sorted {
		n := len(streaks)
		if n == 0 || streaks[n-1].HabitID != t.HabitID || t.HabitOrder != lastOrder+1 {
			streaks = append(streaks, Streak{HabitID: t.HabitID})
			n++
		}
		streaks[n-1].Length++
		streaks[n-1].TaskIDs = append(streaks[n-1].TaskIDs, t.ID)
		lastOrder = t.HabitOrder
	}
	return streaks
}

// Longest returns the streaks ordered by length, longest first. Streaks of
// equal length keep the order Compute discovered them in.
func Longest(streaks []Streak) []Streak {
	out := slices.Clone(streaks)
	slices.SortStableFunc(out, func(a, b Streak) int {
		return cmp.Compare(b.Length, a.Length)
	})
	return out
}

// Top returns at most n of the longest streaks.
func Top(streaks []Streak, n int) []Streak {
	out := Longest(streaks)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Predicate selects streaks by length.
type Predicate struct {
	Op store.Op // OpEquals, OpLessThan or OpGreaterThan
	N  int
}

// ParsePredicate reads ">n", "<n", "=n" or a bare "n" (equality).
func ParsePredicate(s string) (Predicate, error) {
	s = strings.TrimSpace(s)
	p := Predicate{Op: store.OpEquals}
	switch {
	case strings.HasPrefix(s, ">"):
		p.Op, s = store.OpGreaterThan, s[1:]
	case strings.HasPrefix(s, "<"):
		p.Op, s = store.OpLessThan, s[1:]
	case strings.HasPrefix(s, "="):
		s = s[1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Predicate{}, errs.Invalid("streak", "expected >n, <n or =n")
	}
	p.N = n
	return p, nil
}

// Match reports whether a streak of the given length satisfies p.
func (p Predicate) Match(length int) bool {
	switch p.Op {
	case store.OpGreaterThan:
		return length > p.N
	case store.OpLessThan:
		return length < p.N
	case store.OpEquals:
		return length == p.N
	}
	return true
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s%d", p.Op, p.N)
}

// Filter keeps the streaks whose length satisfies p, preserving order.
func Filter(streaks []Streak, p Predicate) []Streak {
	var out []Streak
	for _, s := range streaks {
		if p.Match(s.Length) {
			out = append(out, s)
		}
	}
	return out
}
