// Package duration implements calendar-aware ISO 8601 durations.
//
// A Duration keeps the exact text it was parsed from; that text is the
// persisted and serialized form. Arithmetic is calendar based: months and
// years move the calendar date (clamping to the end of shorter months),
// weeks and days move whole days, and only the hour/minute/second part is a
// fixed span.
package duration

import (
	"database/sql/driver"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/habitr/internal/errs"
)

// Duration is an ISO 8601 duration such as P1M, P1W or PT4H30M.
// The zero value is a zero-length duration.
type Duration struct {
	raw    string
	neg    bool
	years  int
	months int
	weeks  int
	days   int
	clock  time.Duration
}

// ParseError reports malformed duration text.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid duration %q: %s", e.Input, e.Reason)
}

// Category classifies parse failures as bad input.
func (e *ParseError) Category() errs.Category { return errs.CategoryBadRequest }

var pattern = regexp.MustCompile(`^([+-])?P` +
	`(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?` +
	`(T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

// Parse parses an ISO 8601 duration: [+-]P[nY][nM][nW][nD][T[nH][nM][nS]].
// Calendar components must be integers; hours, minutes and seconds may carry
// a decimal fraction.
func Parse(text string) (Duration, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Duration{}, &ParseError{Input: text, Reason: "expected ISO 8601 form P[nY][nM][nW][nD][T[nH][nM][nS]]"}
	}
	if m[6] == "T" {
		return Duration{}, &ParseError{Input: text, Reason: "time designator T without hours, minutes or seconds"}
	}
	if strings.TrimLeft(text, "+-") == "P" {
		return Duration{}, &ParseError{Input: text, Reason: "no components"}
	}

	d := Duration{raw: text, neg: m[1] == "-"}
	calendar := []*int{&d.years, &d.months, &d.weeks, &d.days}
	for i, dst := range calendar {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return Duration{}, &ParseError{Input: text, Reason: fmt.Sprintf("component %q out of range", m[i+2])}
		}
		*dst = n
	}

	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		v := m[i+7]
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return Duration{}, &ParseError{Input: text, Reason: fmt.Sprintf("component %q is not a number", v)}
		}
		span := f * float64(unit)
		if span > math.MaxInt64/2 || d.clock > math.MaxInt64/2 {
			return Duration{}, &ParseError{Input: text, Reason: "time part out of range"}
		}
		d.clock += time.Duration(math.Round(span))
	}
	return d, nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// constants and tests.
func MustParse(text string) Duration {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the text the duration was parsed from.
func (d Duration) String() string {
	if d.raw == "" {
		return "PT0S"
	}
	return d.raw
}

// IsZero reports whether the duration spans no time at all.
func (d Duration) IsZero() bool {
	return d.years == 0 && d.months == 0 && d.weeks == 0 && d.days == 0 && d.clock == 0
}

// Positive reports whether adding d always moves an instant forward.
func (d Duration) Positive() bool {
	return !d.neg && !d.IsZero()
}

// WholeSeconds reports whether d has no sub-second part.
func (d Duration) WholeSeconds() bool {
	return d.clock%time.Second == 0
}

// Equal reports whether d and o describe the same calendar offset,
// regardless of how each was spelled.
func (d Duration) Equal(o Duration) bool {
	if d.IsZero() && o.IsZero() {
		return true
	}
	return d.neg == o.neg && d.years == o.years && d.months == o.months &&
		d.weeks == o.weeks && d.days == o.days && d.clock == o.clock
}

// AddTo returns t shifted by d. Years and months are applied first, keeping
// the day of month unless the target month is shorter, then weeks and days,
// then the clock part.
func (d Duration) AddTo(t time.Time) time.Time {
	sign := 1
	if d.neg {
		sign = -1
	}
	t = addMonths(t, sign*(d.years*12+d.months))
	t = t.AddDate(0, 0, sign*(d.weeks*7+d.days))
	return t.Add(time.Duration(sign) * d.clock)
}

func addMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	year, month, day := t.Date()
	total := int(month) - 1 + n
	year += total / 12
	idx := total % 12
	if idx < 0 {
		idx += 12
		year--
	}
	target := time.Month(idx + 1)
	if last := daysIn(year, target); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(year, target, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer; durations are stored as their text.
func (d Duration) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Duration) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("scan duration: unsupported type %T", src)
	}
}
