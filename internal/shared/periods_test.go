package shared

import (
	"errors"
	"testing"
	"time"
)

func TestMonthOf(t *testing.T) {
	p := MonthOf(time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC))
	if got := p.Start.Format(DateLayout); got != "2026-02-01" {
		t.Fatalf("unexpected start: %s", got)
	}
	if got := p.End.Format(DateLayout); got != "2026-02-28" {
		t.Fatalf("unexpected end: %s", got)
	}
}

func TestNewPeriodRejectsInvertedRange(t *testing.T) {
	_, err := NewPeriod(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPeriodContainsInclusiveBounds(t *testing.T) {
	p, err := ParsePeriod("2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	cases := []struct {
		date string
		want bool
	}{
		{"2026-01-01", true},
		{"2026-01-31", true},
		{"2026-01-15", true},
		{"2025-12-31", false},
		{"2026-02-01", false},
	}
	for _, tc := range cases {
		d, _ := time.Parse(DateLayout, tc.date)
		if got := p.Contains(d); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestParsePeriodRejectsGarbage(t *testing.T) {
	if _, err := ParsePeriod("not-a-date", "2026-01-31"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
