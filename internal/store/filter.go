package store

import (
	"strings"
	"time"
)

// Op is a comparison in a filter condition.
type Op int

const (
	OpNone Op = iota
	OpEquals
	OpLessThan
	OpGreaterThan
	OpInSet
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "="
	case OpLessThan:
		return "<"
	case OpGreaterThan:
		return ">"
	case OpInSet:
		return "in"
	default:
		return "none"
	}
}

// Cond is a typed filter condition on one column. The zero value matches
// everything.
type Cond[T any] struct {
	Op     Op
	Values []T
}

func Equals[T any](v T) Cond[T]      { return Cond[T]{Op: OpEquals, Values: []T{v}} }
func LessThan[T any](v T) Cond[T]    { return Cond[T]{Op: OpLessThan, Values: []T{v}} }
func GreaterThan[T any](v T) Cond[T] { return Cond[T]{Op: OpGreaterThan, Values: []T{v}} }

// InSet matches any of vs. An empty set matches nothing.
func InSet[T any](vs ...T) Cond[T] { return Cond[T]{Op: OpInSet, Values: vs} }

// IsSet reports whether the condition restricts anything.
func (c Cond[T]) IsSet() bool { return c.Op != OpNone }

type whereBuilder struct {
	clauses []string
	args    []any
}

func addCond[T any](w *whereBuilder, column string, c Cond[T], encode func(T) any) {
	if !c.IsSet() {
		return
	}
	if c.Op == OpInSet {
		if len(c.Values) == 0 {
			w.clauses = append(w.clauses, "1 = 0")
			return
		}
		marks := make([]string, len(c.Values))
		for i, v := range c.Values {
			marks[i] = "?"
			w.args = append(w.args, encode(v))
		}
		w.clauses = append(w.clauses, column+" IN ("+strings.Join(marks, ", ")+")")
		return
	}
	if len(c.Values) == 0 {
		return
	}
	w.clauses = append(w.clauses, column+" "+c.Op.String()+" ?")
	w.args = append(w.args, encode(c.Values[0]))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func same[T any](v T) any { return v }

func encodeBool(b bool) any {
	if b {
		return 1
	}
	return 0
}

func encodeTime(t time.Time) any { return formatTime(t) }
