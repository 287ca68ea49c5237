package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	cases := []struct {
		year, month int
		lastDay     int
	}{
		{2024, 1, 31},
		{2024, 2, 29},
		{2023, 2, 28},
		{1900, 2, 28},
		{2000, 2, 29},
		{2024, 4, 30},
		{2024, 6, 30},
		{2024, 9, 30},
		{2024, 11, 30},
		{2024, 12, 31},
	}
	for _, tc := range cases {
		w, err := MonthWindow(tc.year, tc.month)
		if err != nil {
			t.Fatalf("%d-%02d: unexpected error %v", tc.year, tc.month, err)
		}
		wantStart := time.Date(tc.year, time.Month(tc.month), 1, 0, 0, 0, 0, time.UTC)
		wantEnd := time.Date(tc.year, time.Month(tc.month), tc.lastDay, 23, 59, 59, 0, time.UTC)
		if !w.Start.Equal(wantStart) {
			t.Fatalf("%d-%02d: start=%v want %v", tc.year, tc.month, w.Start, wantStart)
		}
		if !w.End.Equal(wantEnd) {
			t.Fatalf("%d-%02d: end=%v want %v", tc.year, tc.month, w.End, wantEnd)
		}
	}
}

func TestMonthWindowSameMonthAllYear(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for month := 1; month <= 12; month++ {
			w, err := MonthWindow(year, month)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.End.Before(w.Start) {
				t.Fatalf("%d-%02d: end before start", year, month)
			}
			if w.Start.Month() != w.End.Month() || w.Start.Year() != w.End.Year() {
				t.Fatalf("%d-%02d: window spans months: %v..%v", year, month, w.Start, w.End)
			}
		}
	}
}

func TestMonthWindowInvalidMonth(t *testing.T) {
	for _, m := range []int{0, 13, -1, 100} {
		if _, err := MonthWindow(2024, m); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("month %d: expected ErrInvalidMonth, got %v", m, err)
		}
	}
}

func TestWindowContainsBounds(t *testing.T) {
	w, _ := MonthWindow(2024, 3)
	cases := []struct {
		at time.Time
		in bool
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), true},
		{time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.at); got != tc.in {
			t.Fatalf("Contains(%v)=%v want %v", tc.at, got, tc.in)
		}
	}
}

func TestTrailingWindows(t *testing.T) {
	cases := []struct {
		name   string
		n      int
		anchor YearMonth
		want   []YearMonth
	}{
		{
			name:   "six months across new year",
			n:      6,
			anchor: YearMonth{2024, 3},
			want:   []YearMonth{{2023, 10}, {2023, 11}, {2023, 12}, {2024, 1}, {2024, 2}, {2024, 3}},
		},
		{
			name:   "three months anchored at january",
			n:      3,
			anchor: YearMonth{2024, 1},
			want:   []YearMonth{{2023, 11}, {2023, 12}, {2024, 1}},
		},
		{
			name:   "single month",
			n:      1,
			anchor: YearMonth{2024, 7},
			want:   []YearMonth{{2024, 7}},
		},
		{
			name:   "more than a year",
			n:      14,
			anchor: YearMonth{2024, 2},
			want: []YearMonth{
				{2023, 1}, {2023, 2}, {2023, 3}, {2023, 4}, {2023, 5}, {2023, 6}, {2023, 7},
				{2023, 8}, {2023, 9}, {2023, 10}, {2023, 11}, {2023, 12}, {2024, 1}, {2024, 2},
			},
		},
		{
			name:   "zero months",
			n:      0,
			anchor: YearMonth{2024, 2},
			want:   []YearMonth{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TrailingWindows(tc.n, tc.anchor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len=%d want %d (%v)", len(got), len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("index %d: got %v want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestTrailingWindowsInvalidAnchor(t *testing.T) {
	if _, err := TrailingWindows(3, YearMonth{2024, 13}); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		from  YearMonth
		delta int
		want  YearMonth
	}{
		{YearMonth{2024, 1}, -2, YearMonth{2023, 11}},
		{YearMonth{2024, 12}, 1, YearMonth{2025, 1}},
		{YearMonth{2024, 3}, -15, YearMonth{2022, 12}},
		{YearMonth{2024, 3}, 0, YearMonth{2024, 3}},
		{YearMonth{2024, 11}, 25, YearMonth{2026, 12}},
	}
	for _, tc := range cases {
		if got := tc.from.AddMonths(tc.delta); got != tc.want {
			t.Fatalf("%v + %d = %v, want %v", tc.from, tc.delta, got, tc.want)
		}
	}
}

func TestRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	open := Range{}
	if !open.Contains(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("open range should contain everything")
	}
	lower := Range{From: &from}
	if lower.Contains(from.Add(-time.Second)) || !lower.Contains(from) {
		t.Fatalf("lower bound not inclusive or not enforced")
	}
	upper := Range{To: &to}
	if upper.Contains(to.Add(time.Second)) || !upper.Contains(to) {
		t.Fatalf("upper bound not inclusive or not enforced")
	}
	if err := (Range{From: &to, To: &from}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
