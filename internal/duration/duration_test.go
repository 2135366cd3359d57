package duration

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/habitr/internal/errs"
)

var ref = time.Date(2023, time.October, 24, 8, 0, 0, 0, time.UTC)

func TestParseValid(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"PT4H", ref.Add(4 * time.Hour)},
		{"PT2H", ref.Add(2 * time.Hour)},
		{"PT1H30M", ref.Add(90 * time.Minute)},
		{"PT1.5H", ref.Add(90 * time.Minute)},
		{"PT0,5M", ref.Add(30 * time.Second)},
		{"PT45S", ref.Add(45 * time.Second)},
		{"P1D", ref.AddDate(0, 0, 1)},
		{"P1W", ref.AddDate(0, 0, 7)},
		{"P2W3D", ref.AddDate(0, 0, 17)},
		{"P1M", ref.AddDate(0, 1, 0)},
		{"P1Y", ref.AddDate(1, 0, 0)},
		{"P1Y2M3DT4H5M6S", time.Date(2024, time.December, 27, 12, 5, 6, 0, time.UTC)},
		{"+P1D", ref.AddDate(0, 0, 1)},
		{"-P1D", ref.AddDate(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := d.AddTo(ref); !got.Equal(tt.want) {
				t.Fatalf("AddTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "P", "PT", "-P", "1D", "P1H", "PT1D", "P1.5D", "P1DT", "p1d", "P 1D", "PT4H ", "P1Y1Y", "P99999999999999999999D"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Input != in {
				t.Errorf("Input = %q, want %q", pe.Input, in)
			}
			if c := errs.CategoryOf(err); c != errs.CategoryBadRequest {
				t.Errorf("category = %v", c)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"PT4H", "P1M", "P7D", "P1W", "PT1.5H", "PT0,5M", "+P1D", "P1Y2M3DT4H5M6S"} {
		d := MustParse(in)
		if d.String() != in {
			t.Errorf("String() = %q, want %q", d.String(), in)
		}

		again, err := Parse(d.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", in, err)
		}
		if !d.AddTo(ref).Equal(again.AddTo(ref)) || !d.Equal(again) {
			t.Errorf("%q changed after a round trip", in)
		}
	}
}

func TestSpellingsAreEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"P7D", "P7D", true},
		{"P7D", "P1W", false}, // weeks and days are distinct components
		{"PT60M", "PT1H", true},
		{"PT0S", "P0D", true},
	}
	for _, tt := range tests {
		if got := MustParse(tt.a).Equal(MustParse(tt.b)); got != tt.want {
			t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if !MustParse("PT0S").Equal(Duration{}) {
		t.Error("PT0S should equal the zero Duration")
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		d    string
		from time.Time
		want time.Time
	}{
		{"P1M", time.Date(2023, time.January, 31, 9, 30, 0, 0, time.UTC), time.Date(2023, time.February, 28, 9, 30, 0, 0, time.UTC)},
		{"P1M", date(2024, time.January, 31), date(2024, time.February, 29)},
		{"P1Y", date(2024, time.February, 29), date(2025, time.February, 28)},
		{"-P1M", date(2023, time.March, 31), date(2023, time.February, 28)},
		{"P1M", date(2023, time.December, 15), date(2024, time.January, 15)},
		{"-P12M", date(2023, time.December, 15), date(2022, time.December, 15)},
	}
	for _, tt := range tests {
		if got := MustParse(tt.d).AddTo(tt.from); !got.Equal(tt.want) {
			t.Errorf("%s + %s = %v, want %v", tt.from.Format(time.DateOnly), tt.d, got, tt.want)
		}
	}
}

func TestAddToIsPure(t *testing.T) {
	d := MustParse("P1M")
	if first, second := d.AddTo(ref), d.AddTo(ref); !first.Equal(second) {
		t.Fatalf("AddTo not deterministic: %v vs %v", first, second)
	}
	if d.String() != "P1M" {
		t.Fatalf("duration changed to %q", d.String())
	}
}

func TestPositive(t *testing.T) {
	tests := map[string]bool{
		"PT1S":  true,
		"P1M":   true,
		"PT0S":  false,
		"P0D":   false,
		"-PT1H": false,
	}
	for in, want := range tests {
		if got := MustParse(in).Positive(); got != want {
			t.Errorf("%s.Positive() = %v, want %v", in, got, want)
		}
	}
	if (Duration{}).Positive() {
		t.Error("zero Duration should not be positive")
	}
}

func TestWholeSeconds(t *testing.T) {
	tests := map[string]bool{
		"PT1S":     true,
		"PT1.5H":   true,
		"PT0,5M":   true,
		"P1M":      true,
		"PT0.5S":   false,
		"PT1.5S":   false,
		"-PT2.25S": false,
	}
	for in, want := range tests {
		if got := MustParse(in).WholeSeconds(); got != want {
			t.Errorf("%s.WholeSeconds() = %v, want %v", in, got, want)
		}
	}
}

func TestTextEncoding(t *testing.T) {
	type doc struct {
		Every Duration `json:"every" yaml:"every"`
	}

	var fromJSON doc
	if err := json.Unmarshal([]byte(`{"every":"P1W"}`), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if fromJSON.Every.String() != "P1W" {
		t.Errorf("json decoded %q", fromJSON.Every)
	}

	out, err := json.Marshal(fromJSON)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"every":"P1W"}` {
		t.Errorf("json encoded %s", out)
	}

	var fromYAML doc
	if err := yaml.Unmarshal([]byte("every: PT4H\n"), &fromYAML); err != nil {
		t.Fatal(err)
	}
	if fromYAML.Every.String() != "PT4H" {
		t.Errorf("yaml decoded %q", fromYAML.Every)
	}

	var bad doc
	if err := json.Unmarshal([]byte(`{"every":"weekly"}`), &bad); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestScanValue(t *testing.T) {
	var d Duration
	if err := d.Scan("PT2H"); err != nil || d.String() != "PT2H" {
		t.Fatalf("Scan(string) = %q, %v", d, err)
	}
	if err := d.Scan([]byte("P1D")); err != nil || d.String() != "P1D" {
		t.Fatalf("Scan([]byte) = %q, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error scanning an int")
	}

	v, err := MustParse("P3M").Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "P3M" {
		t.Fatalf("Value() = %v", v)
	}
}
