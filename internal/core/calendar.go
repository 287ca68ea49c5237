package core

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month. Month is 1-based.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Window is a closed time range: both Start and End are inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Range is a window whose bounds may be missing. A nil bound leaves that
// side unconstrained.
type Range struct {
	From *time.Time
	To   *time.Time
}

// NewYearMonth validates month and returns the pair.
func NewYearMonth(year, month int) (YearMonth, error) {
	ym := YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

// CurrentYearMonth returns the calendar month containing now, read as wall clock.
func CurrentYearMonth(now time.Time) YearMonth {
	return YearMonth{Year: now.Year(), Month: int(now.Month())}
}

func (ym YearMonth) Validate() error {
	if ym.Month < 1 || ym.Month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, ym.Month)
	}
	return nil
}

// AddMonths shifts the month by delta (which may be negative), rolling the
// year over in either direction.
func (ym YearMonth) AddMonths(delta int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + delta
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: month + 1}
}

// Window returns the closed window covering the whole month.
// The month must already be valid.
func (ym YearMonth) Window() Window {
	start := time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
	last := start.AddDate(0, 1, -1)
	end := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, time.UTC)
	return Window{Start: start, End: end}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// MonthWindow computes the closed [start, end] window of a calendar month:
// day 1 at 00:00:00 through the last day at 23:59:59.
func MonthWindow(year, month int) (Window, error) {
	ym, err := NewYearMonth(year, month)
	if err != nil {
		return Window{}, err
	}
	return ym.Window(), nil
}

// TrailingWindows returns the n months ending at anchor, oldest first.
// A non-positive n yields an empty sequence.
func TrailingWindows(n int, anchor YearMonth) ([]YearMonth, error) {
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []YearMonth{}, nil
	}
	out := make([]YearMonth, n)
	for i := 0; i < n; i++ {
		out[i] = anchor.AddMonths(-(n - 1 - i))
	}
	return out, nil
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Range converts the closed window into a Range with both bounds set.
func (w Window) Range() Range {
	start, end := w.Start, w.End
	return Range{From: &start, To: &end}
}

// Contains reports whether t satisfies every bound that is set.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Validate rejects a range whose lower bound is after its upper bound.
func (r Range) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return fmt.Errorf("%w: start after end", ErrInvalidRange)
	}
	return nil
}

// Naive drops the zone of t and keeps its wall clock, truncated to the
// second. All stored and compared instants go through it so that a month is
// the same calendar month for every backend.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
