// Package query turns the textual filter syntax accepted by the CLI and the
// HTTP API into typed store filters.
//
// A value is matched exactly unless it starts with '<' or '>' (strict
// comparison) or has the form *in(a,b,...) (set membership).
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/store"
)

// Getter looks up the raw text of a named filter; "" means unset.
type Getter func(name string) string

// Parse reads one filter expression, converting operands with conv.
func Parse[T any](text string, conv func(string) (T, error)) (store.Cond[T], error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return store.Cond[T]{}, nil
	case strings.HasPrefix(text, "*in(") && strings.HasSuffix(text, ")"):
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "*in("), ")")
		var vs []T
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := conv(part)
			if err != nil {
				return store.Cond[T]{}, err
			}
			vs = append(vs, v)
		}
		return store.InSet(vs...), nil
	case text[0] == '<' || text[0] == '>':
		v, err := conv(strings.TrimSpace(text[1:]))
		if err != nil {
			return store.Cond[T]{}, err
		}
		if text[0] == '<' {
			return store.LessThan(v), nil
		}
		return store.GreaterThan(v), nil
	}
	v, err := conv(text)
	if err != nil {
		return store.Cond[T]{}, err
	}
	return store.Equals(v), nil
}

func Text(s string) (string, error) { return s, nil }

func Int64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func Int(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func Bool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return b, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses an ISO-8601 instant. Values without an offset are UTC.
func Timestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

func field[T any](get Getter, name string, conv func(string) (T, error), dst *store.Cond[T]) error {
	c, err := Parse(get(name), conv)
	if err != nil {
		return &errs.ValidationError{Field: name, Reason: err.Error()}
	}
	*dst = c
	return nil
}

// Habits builds a habit filter from the keys id, name, description,
// interval, lifetime, active, start and end.
func Habits(get Getter) (store.HabitFilter, error) {
	var f store.HabitFilter
	for _, err := range []error{
		field(get, "id", Int64, &f.ID),
		field(get, "name", Text, &f.Name),
		field(get, "description", Text, &f.Description),
		field(get, "interval", Text, &f.Interval),
		field(get, "lifetime", Text, &f.Lifetime),
		field(get, "active", Bool, &f.Active),
		field(get, "start", Timestamp, &f.Start),
		field(get, "end", Timestamp, &f.End),
	} {
		if err != nil {
			return store.HabitFilter{}, err
		}
	}
	return f, nil
}

// Tasks builds a task filter from the keys id, habit_id, habit_order,
// completed, start, end and limit.
func Tasks(get Getter) (store.TaskFilter, error) {
	var f store.TaskFilter
	for _, err := range []error{
		field(get, "id", Int64, &f.ID),
		field(get, "habit_id", Int64, &f.HabitID),
		field(get, "habit_order", Int, &f.HabitOrder),
		field(get, "completed", Bool, &f.Completed),
		field(get, "start", Timestamp, &f.Start),
		field(get, "end", Timestamp, &f.End),
	} {
		if err != nil {
			return store.TaskFilter{}, err
		}
	}
	if raw := get("limit"); raw != "" {
		n, err := Int(raw)
		if err != nil || n < 0 {
			return store.TaskFilter{}, errs.Invalid("limit", "must be a non-negative integer, got %q", raw)
		}
		f.Limit = n
	}
	return f, nil
}
