package sheets

import (
	"fmt"
	"strings"

	"budgetbolt/internal/reports"

	"golang.org/x/text/language"
)

// TabName is the sheet tab that holds one owner's report for one month,
// e.g. "2024-03 alice". Characters the A1 notation cannot carry are replaced.
func TabName(ownerID string, year, month int) string {
	owner := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '!', '[', ']', '*', '?', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(ownerID))
	return fmt.Sprintf("%04d-%02d %s", year, month, owner)
}

// ReportRows lays a monthly report out as spreadsheet rows. Amounts are
// formatted for tag.
func ReportRows(r reports.MonthlyReport, tag language.Tag) [][]any {
	rows := [][]any{
		{"Monthly report", fmt.Sprintf("%04d-%02d", r.Year, r.Month)},
		{},
		{"Total income", r.TotalIncome.Format(tag)},
		{"Total expenses", r.TotalExpenses.Format(tag)},
		{"Net profit", r.NetProfit.Format(tag)},
		{"Tax deductible expenses", r.TaxDeductibleExpenses.Format(tag)},
		{},
		{"Expenses by category", "Amount"},
	}
	for _, c := range r.ExpensesByCategory {
		rows = append(rows, []any{c.Category, c.Amount.Format(tag)})
	}
	rows = append(rows, []any{}, []any{"Income by project", "Amount"})
	for _, p := range r.IncomeByProject {
		rows = append(rows, []any{p.Project, p.Amount.Format(tag)})
	}
	return rows
}
