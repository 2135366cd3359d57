// Package errs defines the typed failures reported by habitr operations.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Category groups errors for HTTP status and CLI messaging.
type Category int

const (
	CategoryInternal Category = iota
	CategoryBadRequest
	CategoryNotFound
	CategoryConflict
)

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryBadRequest:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (c Category) String() string {
	switch c {
	case CategoryBadRequest:
		return "bad_request"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// ValidationError reports input that was rejected before anything was written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a habit or task that does not exist.
type NotFoundError struct {
	Kind string // "habit" or "task"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ScheduleOverflowError reports a schedule that would produce more tasks
// than the configured maximum.
type ScheduleOverflowError struct {
	HabitID int64
	Limit   int
}

func (e *ScheduleOverflowError) Error() string {
	return fmt.Sprintf("schedule for habit %d exceeds the maximum of %d tasks", e.HabitID, e.Limit)
}

// ConflictError reports that a habit is being modified by another operation
// and its lock could not be acquired in time. Callers may retry.
type ConflictError struct {
	HabitID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("habit %d is busy, try again", e.HabitID)
}

// categorized is implemented by errors from other packages (duration.ParseError)
// that carry their own category.
type categorized interface {
	Category() Category
}

// CategoryOf classifies err, unwrapping as needed. Unknown errors are internal.
func CategoryOf(err error) Category {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		overflow   *ScheduleOverflowError
		conflict   *ConflictError
		cat        categorized
	)
	switch {
	case err == nil:
		return CategoryInternal
	case errors.As(err, &validation), errors.As(err, &overflow):
		return CategoryBadRequest
	case errors.As(err, &notFound):
		return CategoryNotFound
	case errors.As(err, &conflict):
		return CategoryConflict
	case errors.As(err, &cat):
		return cat.Category()
	}
	return CategoryInternal
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
