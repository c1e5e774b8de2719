package shared

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Period is an inclusive calendar date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)
	return Period{Start: start, End: end}
}

// NewPeriod validates and constructs an inclusive period.
func NewPeriod(start, end time.Time) (Period, error) {
	start = truncateDate(start)
	end = truncateDate(end)
	if start.After(end) {
		return Period{}, fmt.Errorf("%w: period start %s after end %s", ErrValidation, start.Format(DateLayout), end.Format(DateLayout))
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether the date falls inside the period. Both bounds are
// inclusive.
func (p Period) Contains(t time.Time) bool {
	d := truncateDate(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Label renders the period as "start..end" for logs and cache keys.
func (p Period) Label() string {
	return p.Start.Format(DateLayout) + ".." + p.End.Format(DateLayout)
}

// ParsePeriod parses "2006-01-02" formatted bounds.
func ParsePeriod(startStr, endStr string) (Period, error) {
	start, err := time.Parse(DateLayout, startStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid period start %q", ErrValidation, startStr)
	}
	end, err := time.Parse(DateLayout, endStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid period end %q", ErrValidation, endStr)
	}
	return NewPeriod(start, end)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
