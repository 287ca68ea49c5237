package reports

import (
	"context"
	"slices"
	"strings"
	"time"

	"budgetbolt/internal/core"
	"budgetbolt/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Profitability is the all-time result of a single project.
type Profitability struct {
	ProjectID     string     `json:"project_id"`
	ProjectName   string     `json:"project_name"`
	TotalIncome   core.Money `json:"total_income"`
	TotalExpenses core.Money `json:"total_expenses"`
	Profit        core.Money `json:"profit"`
	ProfitMargin  float64    `json:"profit_margin"`
}

// Margin returns profit as a percentage of income rounded to two decimals.
// It is 0 whenever income is not positive.
func Margin(profit, income core.Money) float64 {
	if income.Cents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(profit.Cents).
		Div(decimal.NewFromInt(income.Cents)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}

// Profitability sums every income and expense of the project regardless of
// date. It fails with core.ErrNotFound when the project does not exist or
// belongs to another owner.
func (b *Builder) Profitability(ctx context.Context, ownerID, projectID string) (p Profitability, err error) {
	defer func(start time.Time) { b.observe(OpProfitability, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return Profitability{}, err
	}

	project, err := b.store.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return Profitability{}, err
	}
	return b.profitability(ctx, ownerID, project)
}

func (b *Builder) profitability(ctx context.Context, ownerID string, project core.Project) (Profitability, error) {
	var incomes, expenses []core.Transaction
	q := storage.Query{ProjectID: project.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = b.store.QueryTransactions(gctx, ownerID, core.KindIncome, q)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = b.store.QueryTransactions(gctx, ownerID, core.KindExpense, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return Profitability{}, err
	}

	p := Profitability{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		TotalIncome:   core.Sum(incomes),
		TotalExpenses: core.Sum(expenses),
	}
	p.Profit = p.TotalIncome.Sub(p.TotalExpenses)
	p.ProfitMargin = Margin(p.Profit, p.TotalIncome)
	return p, nil
}

// ProjectsProfitability computes Profitability for each of the owner's
// projects, ordered by project name.
func (b *Builder) ProjectsProfitability(ctx context.Context, ownerID string) (out []Profitability, err error) {
	defer func(start time.Time) { b.observe(OpProjectsProfitability, start, err) }(time.Now())
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	projects, err := b.store.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out = make([]Profitability, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, project := range projects {
		g.Go(func() error {
			p, err := b.profitability(gctx, ownerID, project)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b Profitability) int {
		return strings.Compare(a.ProjectName, b.ProjectName)
	})
	return out, nil
}
