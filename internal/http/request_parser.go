// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// path month parameters, list filters, dates and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetbolt/internal/core"
	"budgetbolt/internal/storage"
)

const (
	maxBodyBytes = 1 << 20

	defaultPageLimit = 100
	maxPageLimit     = 1000
)

var errBadRequest = errors.New("bad request")

// badRequest marks a malformed parameter or body. It maps to 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// Page is the skip/limit window applied to list responses.
type Page struct {
	Skip  int
	Limit int
}

// Apply returns the page of items.
func Apply[T any](p Page, items []T) []T {
	if p.Skip >= len(items) {
		return []T{}
	}
	items = items[p.Skip:]
	if p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// ParseMonthPath reads the {year} and {month} path values. A month outside
// 1..12 or a non-numeric value is core.ErrInvalidMonth.
func ParseMonthPath(r *http.Request) (core.YearMonth, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return core.YearMonth{}, core.ErrInvalidMonth
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return core.YearMonth{}, core.ErrInvalidMonth
	}
	return core.NewYearMonth(year, month)
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and keeps the wall clock.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", core.ErrInvalidDate, s)
	}
	return core.Naive(t), nil
}

// ParseDateRange reads start_date and end_date. Either may be missing. A
// date-only end_date runs to 23:59:59 so the whole end day is included, not
// cut off at midnight.
func ParseDateRange(query url.Values) (core.Range, error) {
	var rng core.Range
	if v := strings.TrimSpace(query.Get("start_date")); v != "" {
		from, err := parseDate(v)
		if err != nil {
			return core.Range{}, err
		}
		rng.From = &from
	}
	if v := strings.TrimSpace(query.Get("end_date")); v != "" {
		to, err := parseDate(v)
		if err != nil {
			return core.Range{}, err
		}
		if len(v) == len(time.DateOnly) {
			to = to.Add(24*time.Hour - time.Second)
		}
		rng.To = &to
	}
	return rng, rng.Validate()
}

// ParseTransactionQuery reads the list filters for kind. year and month
// select a calendar month; otherwise start_date and end_date bound the list.
func ParseTransactionQuery(query url.Values, kind core.Kind) (storage.Query, Page, error) {
	var q storage.Query

	year, month := strings.TrimSpace(query.Get("year")), strings.TrimSpace(query.Get("month"))
	switch {
	case year != "" || month != "":
		y, yerr := strconv.Atoi(year)
		m, merr := strconv.Atoi(month)
		if yerr != nil || merr != nil {
			return q, Page{}, core.ErrInvalidMonth
		}
		w, err := core.MonthWindow(y, m)
		if err != nil {
			return q, Page{}, err
		}
		rng := w.Range()
		q.Range = &rng
	default:
		rng, err := ParseDateRange(query)
		if err != nil {
			return q, Page{}, err
		}
		if rng.From != nil || rng.To != nil {
			q.Range = &rng
		}
	}

	q.ProjectID = sanitizeInput(query.Get("project_id"))

	switch kind {
	case core.KindExpense:
		q.CategoryID = sanitizeInput(query.Get("category_id"))
		if v := strings.TrimSpace(query.Get("is_business")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return q, Page{}, badRequest("is_business must be true or false")
			}
			q.IsBusiness = &b
		}
	case core.KindIncome:
		if v := strings.TrimSpace(query.Get("status")); v != "" {
			status := core.IncomeStatus(v)
			if !status.IsValid() {
				return q, Page{}, badRequest("unknown status %q", v)
			}
			q.Status = status
		}
	}

	page, err := ParsePage(query)
	return q, page, err
}

// ParsePage reads skip and limit. limit defaults to 100 and is capped at 1000.
func ParsePage(query url.Values) (Page, error) {
	p := Page{Limit: defaultPageLimit}
	if v := strings.TrimSpace(query.Get("skip")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, badRequest("skip must be a non-negative integer")
		}
		p.Skip = n
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Page{}, badRequest("limit must be a positive integer")
		}
		p.Limit = min(n, maxPageLimit)
	}
	return p, nil
}

// decodeJSON reads one JSON object into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
