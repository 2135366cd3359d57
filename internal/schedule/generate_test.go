package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sadopc/habitr/internal/duration"
	"github.com/sadopc/habitr/internal/errs"
	"github.com/sadopc/habitr/internal/store"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func habit(start, end, interval, lifetime string) store.Habit {
	return store.Habit{
		ID:       7,
		Name:     "stretch",
		Interval: duration.MustParse(interval),
		Lifetime: duration.MustParse(lifetime),
		Active:   true,
		Start:    at(start),
		End:      at(end),
	}
}

func mustGenerate(t *testing.T, h store.Habit, from time.Time, startOrder int) []store.Task {
	t.Helper()
	drafts, err := Generate(h, from, startOrder, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return drafts
}

func TestGenerateFourHourly(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H")

	drafts := mustGenerate(t, h, h.Start, 0)
	wantStarts := []string{
		"2023-10-24T08:00:00", "2023-10-24T12:00:00", "2023-10-24T16:00:00",
		"2023-10-24T20:00:00", "2023-10-25T00:00:00", "2023-10-25T04:00:00",
	}
	if len(drafts) != len(wantStarts) {
		t.Fatalf("expected %d drafts, got %d", len(wantStarts), len(drafts))
	}
	for i, d := range drafts {
		if d.HabitID != 7 || d.HabitOrder != i+1 {
			t.Errorf("draft %d: habit %d order %d", i, d.HabitID, d.HabitOrder)
		}
		if !d.Start.Equal(at(wantStarts[i])) {
			t.Errorf("draft %d: start %v, want %s", i, d.Start, wantStarts[i])
		}
		if !d.End.Equal(d.Start.Add(2 * time.Hour)) {
			t.Errorf("draft %d: end %v", i, d.End)
		}
		if d.Completed || d.CompletedAt != nil || d.ID != 0 {
			t.Errorf("draft %d should be a fresh task: %+v", i, d)
		}
	}
}

func TestGenerateCountLaw(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		interval   string
		step       time.Duration
	}{
		{"hourly", "2023-01-01T00:00:00", "2023-01-02T00:00:00", "PT1H", time.Hour},
		{"uneven end", "2023-01-01T00:00:00", "2023-01-01T10:30:00", "PT3H", 3 * time.Hour},
		{"daily", "2023-01-01T06:00:00", "2023-03-01T06:00:00", "P1D", 24 * time.Hour},
		{"weekly", "2023-01-01T06:00:00", "2023-12-31T06:00:00", "P1W", 7 * 24 * time.Hour},
		{"shorter than interval", "2023-01-01T00:00:00", "2023-01-01T00:30:00", "PT1H", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := habit(tt.start, tt.end, tt.interval, "PT30M")
			drafts := mustGenerate(t, h, h.Start, 0)

			want := 0
			for k := 0; h.Start.Add(time.Duration(k) * tt.step).Before(h.End); k++ {
				want++
			}
			if len(drafts) != want {
				t.Fatalf("expected %d drafts, got %d", want, len(drafts))
			}
		})
	}
}

func TestGenerateOrdersAreContiguous(t *testing.T) {
	h := habit("2023-01-01T00:00:00", "2023-06-01T00:00:00", "P1W", "P1D")
	drafts := mustGenerate(t, h, h.Start, 0)
	if len(drafts) == 0 {
		t.Fatal("no drafts")
	}

	for i := 1; i < len(drafts); i++ {
		if drafts[i].HabitOrder != drafts[i-1].HabitOrder+1 {
			t.Errorf("order gap at %d", i)
		}
		if !drafts[i].Start.After(drafts[i-1].Start) {
			t.Errorf("start not increasing at %d", i)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	h := habit("2023-01-31T09:00:00", "2024-01-31T09:00:00", "P1M", "P1D")
	first := mustGenerate(t, h, h.Start, 3)
	second := mustGenerate(t, h, h.Start, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same inputs produced different drafts")
	}
	if first[0].HabitOrder != 4 {
		t.Fatalf("expected first order 4, got %d", first[0].HabitOrder)
	}
}

func TestGenerateMonthlyFollowsCalendar(t *testing.T) {
	h := habit("2023-01-31T09:00:00", "2023-05-01T00:00:00", "P1M", "PT1H")
	drafts := mustGenerate(t, h, h.Start, 0)
	want := []string{"2023-01-31T09:00:00", "2023-02-28T09:00:00", "2023-03-28T09:00:00", "2023-04-28T09:00:00"}
	if len(drafts) != len(want) {
		t.Fatalf("expected %d drafts, got %d", len(want), len(drafts))
	}
	for i, w := range want {
		if !drafts[i].Start.Equal(at(w)) {
			t.Errorf("draft %d: start %v, want %s", i, drafts[i].Start, w)
		}
	}
}

func TestGenerateFromLaterInstant(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H")
	drafts := mustGenerate(t, h, at("2023-10-24T13:00:00"), 2)
	if len(drafts) != 5 {
		t.Fatalf("expected 5 drafts, got %d", len(drafts))
	}
	if !drafts[0].Start.Equal(at("2023-10-24T13:00:00")) {
		t.Errorf("first start %v", drafts[0].Start)
	}
	if drafts[0].HabitOrder != 3 || drafts[4].HabitOrder != 7 {
		t.Errorf("orders %d..%d, want 3..7", drafts[0].HabitOrder, drafts[4].HabitOrder)
	}
}

func TestGenerateFromBeforeStartUsesStart(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-24T12:00:00", "PT1H", "PT1H")
	drafts := mustGenerate(t, h, at("2020-01-01T00:00:00"), 0)
	if len(drafts) != 4 {
		t.Fatalf("expected 4 drafts, got %d", len(drafts))
	}
	if !drafts[0].Start.Equal(h.Start) {
		t.Errorf("first start %v, want %v", drafts[0].Start, h.Start)
	}
}

func TestGenerateFromAtOrAfterEndIsEmpty(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H")

	if drafts := mustGenerate(t, h, h.End, 0); len(drafts) != 0 {
		t.Errorf("from end: expected none, got %d", len(drafts))
	}
	if drafts := mustGenerate(t, h, h.End.Add(time.Hour), 10); len(drafts) != 0 {
		t.Errorf("after end: expected none, got %d", len(drafts))
	}
}

func TestGenerateLifetimeMayExceedInterval(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-24T12:00:00", "PT1H", "PT3H")
	drafts := mustGenerate(t, h, h.Start, 0)
	if len(drafts) != 4 {
		t.Fatalf("expected 4 drafts, got %d", len(drafts))
	}
	if !drafts[0].End.After(drafts[1].Start) {
		t.Error("windows should overlap")
	}
}

func TestGenerateRejectsNonPositiveDurations(t *testing.T) {
	tests := []struct {
		name, interval, lifetime, field string
	}{
		{"zero interval", "PT0S", "PT1H", "interval"},
		{"negative interval", "-P1D", "PT1H", "interval"},
		{"zero lifetime", "P1D", "P0D", "lifetime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := habit("2023-01-01T00:00:00", "2023-02-01T00:00:00", tt.interval, tt.lifetime)
			_, err := Generate(h, h.Start, 0, 0)

			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestGenerateOverflow(t *testing.T) {
	h := habit("2015-01-01T00:00:00", "2025-01-01T00:00:00", "PT1S", "PT1S")
	_, err := Generate(h, h.Start, 0, 1000)

	var oe *errs.ScheduleOverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("expected ScheduleOverflowError, got %v", err)
	}
	if oe.Limit != 1000 || oe.HabitID != h.ID {
		t.Errorf("unexpected error fields %+v", oe)
	}
}

func TestGenerateExactlyAtLimit(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H")
	drafts, err := Generate(h, h.Start, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 6 {
		t.Fatalf("expected 6 drafts, got %d", len(drafts))
	}

	if _, err := Generate(h, h.Start, 0, 5); err == nil {
		t.Fatal("expected overflow at limit 5")
	}
}

func TestCountMatchesGenerate(t *testing.T) {
	habits := []store.Habit{
		habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H"),
		habit("2024-01-31T00:00:00", "2024-12-31T00:00:00", "P1M", "P1D"),
		habit("2023-10-24T08:00:00", "2023-10-24T08:00:00", "PT1H", "PT1H"),
		habit("2023-10-24T08:00:00", "2023-10-24T09:00:00", "PT7M", "PT1M"),
	}
	for _, h := range habits {
		drafts := mustGenerate(t, h, h.Start, 0)
		n, err := Count(h, h.Start, 0)
		if err != nil {
			t.Fatal(err)
		}
		if n != len(drafts) {
			t.Errorf("%s every %s: Count = %d, Generate = %d", h.Start, h.Interval, n, len(drafts))
		}
	}
}

func TestCountOverflowAndInvalid(t *testing.T) {
	h := habit("2023-10-24T08:00:00", "2023-10-25T08:00:00", "PT4H", "PT2H")

	if n, err := Count(h, h.Start, 6); err != nil || n != 6 {
		t.Fatalf("Count at limit = %d, %v", n, err)
	}

	_, err := Count(h, h.Start, 5)
	var overflow *errs.ScheduleOverflowError
	if !errors.As(err, &overflow) {
		t.Errorf("expected ScheduleOverflowError, got %v", err)
	}

	if n, err := Count(h, at("2023-10-24T20:00:00"), 0); err != nil || n != 3 {
		t.Errorf("Count from 20:00 = %d, %v; want 3", n, err)
	}

	h.Interval = duration.MustParse("PT0S")
	_, err = Count(h, h.Start, 0)
	var invalid *errs.ValidationError
	if !errors.As(err, &invalid) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
