package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"budgetbolt/internal/reports"
	ports "budgetbolt/internal/sheets"

	"golang.org/x/text/language"
)

// Writer keeps exported reports in memory, one tab per owner and month.
// Used when no spreadsheet is configured and in tests.
type Writer struct {
	mu     sync.Mutex
	locale language.Tag
	tabs   map[string][][]any
}

var _ ports.ReportWriter = (*Writer)(nil)

func New(locale language.Tag) *Writer {
	return &Writer{locale: locale, tabs: make(map[string][][]any)}
}

// WriteMonthlyReport replaces the tab contents and returns a synthetic
// reference.
func (w *Writer) WriteMonthlyReport(_ context.Context, ownerID string, r reports.MonthlyReport) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("write report: empty owner")
	}
	tab := ports.TabName(ownerID, r.Year, r.Month)
	rows := ports.ReportRows(r, w.locale)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[tab] = rows
	return fmt.Sprintf("mem:%s!A1:B%d", tab, len(rows)), nil
}

// Rows returns a copy of the rows written to tab.
func (w *Writer) Rows(tab string) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[tab]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out, true
}

// Tabs lists the tab names in lexical order.
func (w *Writer) Tabs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.tabs))
	for name := range w.tabs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
