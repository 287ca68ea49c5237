// Package reports turns owner-scoped transaction sets into calendar-aligned
// summaries: the dashboard snapshot, monthly reports, expense breakdowns,
// income trends and project profitability.
//
// Every operation is a read-only reduction over the store. Independent
// store reads inside one report are issued concurrently; the first failure
// cancels the rest and is returned to the caller as is.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetbolt/internal/core"
	"budgetbolt/internal/storage"

	"golang.org/x/sync/errgroup"
)

const (
	// RecentLimit is how many incomes and expenses the dashboard lists.
	RecentLimit = 5
	// DefaultTrendMonths is the income trend length when none is given.
	DefaultTrendMonths = 6
	// MaxTrendMonths bounds the income trend length.
	MaxTrendMonths = 120

	maxParallelQueries = 4
)

const (
	OpDashboard             = "dashboard"
	OpMonthly               = "monthly"
	OpExpenseBreakdown      = "expense_breakdown"
	OpIncomeTrend           = "income_trend"
	OpProfitability         = "profitability"
	OpProjectsProfitability = "projects_profitability"
)

// Builder composes the calendar and aggregation primitives into reports.
type Builder struct {
	store    Store
	now      func() time.Time
	recorder Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now as the source of "the current month".
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithRecorder reports per-operation timing and errors.
func WithRecorder(r Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

func NewBuilder(store Store, opts ...Option) *Builder {
	b := &Builder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) observe(op string, start time.Time, err error) {
	if b.recorder != nil {
		b.recorder.ObserveReport(op, time.Since(start).Seconds(), err)
	}
}

func (b *Builder) currentMonth() core.YearMonth {
	return core.CurrentYearMonth(core.Naive(b.now()))
}

func checkOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return core.ErrMissingOwner
	}
	return nil
}

// Dashboard is the current-month snapshot.
type Dashboard struct {
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	MonthlyIncome   core.Money         `json:"monthly_income"`
	MonthlyExpenses core.Money         `json:"monthly_expenses"`
	MonthlyProfit   core.Money         `json:"monthly_profit"`
	PendingPayments core.Money         `json:"pending_payments"`
	ActiveProjects  int                `json:"active_projects"`
	RecentIncome    []core.Transaction `json:"recent_income"`
	RecentExpenses  []core.Transaction `json:"recent_expenses"`
}

// Dashboard summarises the current calendar month. Pending payments are
// summed over all time, not just the current month.
func (b *Builder) Dashboard(ctx context.Context, ownerID string) (d Dashboard, err error) {
	defer func(start time.Time) { b.observe(OpDashboard, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return Dashboard{}, err
	}

	ym := b.currentMonth()
	month := ym.Window().Range()
	d = Dashboard{Year: ym.Year, Month: ym.Month}

	var incomes, expenses, pending []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = b.store.QueryTransactions(gctx, ownerID, core.KindIncome, storage.Query{Range: &month})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = b.store.QueryTransactions(gctx, ownerID, core.KindExpense, storage.Query{Range: &month})
		return err
	})
	g.Go(func() (err error) {
		pending, err = b.store.QueryTransactions(gctx, ownerID, core.KindIncome, storage.Query{Status: core.StatusPending})
		return err
	})
	g.Go(func() (err error) {
		d.ActiveProjects, err = b.store.CountProjects(gctx, ownerID, core.ProjectActive)
		return err
	})
	g.Go(func() (err error) {
		d.RecentIncome, err = b.store.RecentTransactions(gctx, ownerID, core.KindIncome, RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentExpenses, err = b.store.RecentTransactions(gctx, ownerID, core.KindExpense, RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.MonthlyIncome = core.Sum(incomes)
	d.MonthlyExpenses = core.Sum(expenses)
	d.MonthlyProfit = d.MonthlyIncome.Sub(d.MonthlyExpenses)
	d.PendingPayments = core.Sum(pending)
	// Stores order their results, but the tie-break must not depend on it.
	d.RecentIncome = core.MostRecent(d.RecentIncome, RecentLimit)
	d.RecentExpenses = core.MostRecent(d.RecentExpenses, RecentLimit)

	slog.DebugContext(ctx, "Dashboard built",
		"owner_id", ownerID,
		"period", ym.String(),
		"income_cents", d.MonthlyIncome.Cents,
		"expense_cents", d.MonthlyExpenses.Cents)

	return d, nil
}

// CategoryTotal is one row of a by-category breakdown.
type CategoryTotal struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

// ProjectTotal is one row of a by-project breakdown.
type ProjectTotal struct {
	Project string     `json:"project"`
	Amount  core.Money `json:"amount"`
}

// MonthlyReport details a single calendar month.
type MonthlyReport struct {
	Year                  int             `json:"year"`
	Month                 int             `json:"month"`
	TotalIncome           core.Money      `json:"total_income"`
	TotalExpenses         core.Money      `json:"total_expenses"`
	NetProfit             core.Money      `json:"net_profit"`
	ExpensesByCategory    []CategoryTotal `json:"expenses_by_category"`
	IncomeByProject       []ProjectTotal  `json:"income_by_project"`
	TaxDeductibleExpenses core.Money      `json:"tax_deductible_expenses"`
}

// MonthlyReport computes totals and breakdowns for year/month. Categories
// and projects without transactions in the month are absent from the
// breakdowns, as are incomes not billed to a project.
func (b *Builder) MonthlyReport(ctx context.Context, ownerID string, year, month int) (r MonthlyReport, err error) {
	defer func(start time.Time) { b.observe(OpMonthly, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return MonthlyReport{}, err
	}
	window, err := core.MonthWindow(year, month)
	if err != nil {
		return MonthlyReport{}, err
	}
	rng := window.Range()

	var incomes, expenses []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = b.store.QueryTransactions(gctx, ownerID, core.KindIncome, storage.Query{Range: &rng})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = b.store.QueryTransactions(gctx, ownerID, core.KindExpense, storage.Query{Range: &rng})
		return err
	})
	if err := g.Wait(); err != nil {
		return MonthlyReport{}, err
	}

	categories, err := b.resolveCategories(ctx, expenses)
	if err != nil {
		return MonthlyReport{}, err
	}
	projects, err := b.resolveProjects(ctx, ownerID, incomes)
	if err != nil {
		return MonthlyReport{}, err
	}

	r = MonthlyReport{
		Year:          year,
		Month:         month,
		TotalIncome:   core.Sum(incomes),
		TotalExpenses: core.Sum(expenses),
	}
	r.NetProfit = r.TotalIncome.Sub(r.TotalExpenses)

	byCategory := core.GroupBy(expenses, func(tx core.Transaction) (string, bool) {
		c, ok := categories[tx.CategoryID]
		return c.Name, ok
	})
	r.ExpensesByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, kg := range core.SortedGroups(byCategory, strings.Compare) {
		r.ExpensesByCategory = append(r.ExpensesByCategory, CategoryTotal{Category: kg.Key, Amount: kg.Total})
	}

	byProject := core.GroupBy(incomes, func(tx core.Transaction) (string, bool) {
		p, ok := projects[tx.ProjectID]
		return p.Name, ok
	})
	r.IncomeByProject = make([]ProjectTotal, 0, len(byProject))
	for _, kg := range core.SortedGroups(byProject, strings.Compare) {
		r.IncomeByProject = append(r.IncomeByProject, ProjectTotal{Project: kg.Key, Amount: kg.Total})
	}

	var deductible []core.Transaction
	for _, tx := range expenses {
		if c, ok := categories[tx.CategoryID]; ok && c.TaxDeductible {
			deductible = append(deductible, tx)
		}
	}
	r.TaxDeductibleExpenses = core.Sum(deductible)

	slog.DebugContext(ctx, "Monthly report built",
		"owner_id", ownerID,
		"year", year,
		"month", month,
		"incomes", core.Count(incomes),
		"expenses", core.Count(expenses))

	return r, nil
}

// BreakdownRow groups expenses by category name and deductibility.
type BreakdownRow struct {
	Category         string     `json:"category"`
	TaxDeductible    bool       `json:"tax_deductible"`
	TotalAmount      core.Money `json:"total_amount"`
	TransactionCount int        `json:"transaction_count"`
}

type breakdownKey struct {
	name       string
	deductible bool
}

// ExpenseBreakdown groups the owner's expenses inside rng. A nil bound in
// rng leaves that side of the window open.
func (b *Builder) ExpenseBreakdown(ctx context.Context, ownerID string, rng core.Range) (rows []BreakdownRow, err error) {
	defer func(start time.Time) { b.observe(OpExpenseBreakdown, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	q := storage.Query{}
	if rng.From != nil || rng.To != nil {
		q.Range = &rng
	}
	expenses, err := b.store.QueryTransactions(ctx, ownerID, core.KindExpense, q)
	if err != nil {
		return nil, err
	}
	categories, err := b.resolveCategories(ctx, expenses)
	if err != nil {
		return nil, err
	}

	groups := core.GroupBy(expenses, func(tx core.Transaction) (breakdownKey, bool) {
		c, ok := categories[tx.CategoryID]
		return breakdownKey{name: c.Name, deductible: c.TaxDeductible}, ok
	})
	sorted := core.SortedGroups(groups, func(a, b breakdownKey) int {
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		switch {
		case a.deductible == b.deductible:
			return 0
		case !a.deductible:
			return -1
		default:
			return 1
		}
	})

	rows = make([]BreakdownRow, 0, len(sorted))
	for _, kg := range sorted {
		rows = append(rows, BreakdownRow{
			Category:         kg.Key.name,
			TaxDeductible:    kg.Key.deductible,
			TotalAmount:      kg.Total,
			TransactionCount: kg.Count,
		})
	}
	return rows, nil
}

// TrendPoint is the income of one calendar month.
type TrendPoint struct {
	Year   int        `json:"year"`
	Month  int        `json:"month"`
	Income core.Money `json:"income"`
}

// IncomeTrend returns the income of the last months calendar months,
// current month included, oldest first. Each month is summed on its own.
func (b *Builder) IncomeTrend(ctx context.Context, ownerID string, months int) (points []TrendPoint, err error) {
	defer func(start time.Time) { b.observe(OpIncomeTrend, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d, got %d", core.ErrInvalidRange, MaxTrendMonths, months)
	}

	periods, err := core.TrailingWindows(months, b.currentMonth())
	if err != nil {
		return nil, err
	}

	points = make([]TrendPoint, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, ym := range periods {
		g.Go(func() error {
			rng := ym.Window().Range()
			incomes, err := b.store.QueryTransactions(gctx, ownerID, core.KindIncome, storage.Query{Range: &rng})
			if err != nil {
				return err
			}
			points[i] = TrendPoint{Year: ym.Year, Month: ym.Month, Income: core.Sum(incomes)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// resolveCategories looks up every distinct category referenced by txs.
// Categories that no longer exist are left out of the result.
func (b *Builder) resolveCategories(ctx context.Context, txs []core.Transaction) (map[string]core.Category, error) {
	out := make(map[string]core.Category)
	for _, tx := range txs {
		if tx.CategoryID == "" {
			continue
		}
		if _, seen := out[tx.CategoryID]; seen {
			continue
		}
		c, err := b.store.GetCategory(ctx, tx.CategoryID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Expense references missing category", "category_id", tx.CategoryID, "transaction_id", tx.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out[tx.CategoryID] = c
	}
	return out, nil
}

// resolveProjects looks up every distinct project referenced by txs.
func (b *Builder) resolveProjects(ctx context.Context, ownerID string, txs []core.Transaction) (map[string]core.Project, error) {
	out := make(map[string]core.Project)
	for _, tx := range txs {
		if tx.ProjectID == "" {
			continue
		}
		if _, seen := out[tx.ProjectID]; seen {
			continue
		}
		p, err := b.store.GetProject(ctx, ownerID, tx.ProjectID)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[tx.ProjectID] = p
	}
	return out, nil
}
