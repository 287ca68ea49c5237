package core

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// CategoryKey returns the comparison key for a category name. Category
// names are unique system-wide regardless of case and surrounding space.
func CategoryKey(name string) string {
	return folder.String(strings.Join(strings.Fields(name), " "))
}

// DefaultCategories is the reference set every new database starts with.
// IDs are stable so migrations and the in-memory store agree.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-office-supplies", Name: "Office Supplies", Kind: KindExpense, TaxDeductible: true, Description: "Pens, paper, and other office supplies"},
		{ID: "cat-software-subscriptions", Name: "Software Subscriptions", Kind: KindExpense, TaxDeductible: true, Description: "SaaS tools and software licenses"},
		{ID: "cat-equipment", Name: "Equipment", Kind: KindExpense, TaxDeductible: true, Description: "Computers, monitors, and hardware"},
		{ID: "cat-travel", Name: "Travel", Kind: KindExpense, TaxDeductible: true, Description: "Business travel expenses"},
		{ID: "cat-marketing", Name: "Marketing", Kind: KindExpense, TaxDeductible: true, Description: "Advertising and promotional expenses"},
		{ID: "cat-professional-development", Name: "Professional Development", Kind: KindExpense, TaxDeductible: true, Description: "Courses, books, and conferences"},
		{ID: "cat-insurance", Name: "Insurance", Kind: KindExpense, TaxDeductible: true, Description: "Business insurance premiums"},
		{ID: "cat-legal-accounting", Name: "Legal & Accounting", Kind: KindExpense, TaxDeductible: true, Description: "Legal and accounting services"},
		{ID: "cat-home-office", Name: "Home Office", Kind: KindExpense, TaxDeductible: true, Description: "Home office expenses"},
		{ID: "cat-internet-phone", Name: "Internet & Phone", Kind: KindExpense, TaxDeductible: true, Description: "Business internet and phone bills"},
		{ID: "cat-food-dining", Name: "Food & Dining", Kind: KindExpense, Description: "Meals and restaurants"},
		{ID: "cat-transportation", Name: "Transportation", Kind: KindExpense, Description: "Personal transportation"},
		{ID: "cat-entertainment", Name: "Entertainment", Kind: KindExpense, Description: "Movies, games, and leisure"},
		{ID: "cat-healthcare", Name: "Healthcare", Kind: KindExpense, Description: "Medical expenses"},
		{ID: "cat-shopping", Name: "Shopping", Kind: KindExpense, Description: "Personal shopping"},
		{ID: "cat-utilities", Name: "Utilities", Kind: KindExpense, Description: "Electricity, water, gas"},
		{ID: "cat-rent-mortgage", Name: "Rent/Mortgage", Kind: KindExpense, Description: "Housing costs"},
		{ID: "cat-project-work", Name: "Project Work", Kind: KindIncome, Description: "Income from client projects"},
		{ID: "cat-recurring-contracts", Name: "Recurring Contracts", Kind: KindIncome, Description: "Retainer and recurring income"},
		{ID: "cat-consulting", Name: "Consulting", Kind: KindIncome, Description: "Consulting fees"},
		{ID: "cat-other-income", Name: "Other Income", Kind: KindIncome, Description: "Miscellaneous income"},
	}
}
