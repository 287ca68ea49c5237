package storage

import (
	"context"

	"budgetbolt/internal/core"
)

// Query narrows a transaction lookup. Every set field must hold.
type Query struct {
	Range      *core.Range
	ProjectID  string
	CategoryID string
	IsBusiness *bool
	Status     core.IncomeStatus
}

// Filter turns the query into an in-memory predicate for owner and kind.
func (q Query) Filter(ownerID string, kind core.Kind) core.Filter {
	return core.Filter{
		OwnerID:    ownerID,
		Kind:       kind,
		Range:      q.Range,
		ProjectID:  q.ProjectID,
		CategoryID: q.CategoryID,
		IsBusiness: q.IsBusiness,
		Status:     q.Status,
	}
}

// Store is the transaction store. Transaction and project access is always
// scoped to one owner; categories are global.
type Store interface {
	QueryTransactions(ctx context.Context, ownerID string, kind core.Kind, q Query) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, ownerID string, kind core.Kind, limit int) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	// UpdateTransaction replaces the stored transaction with the same owner,
	// kind and ID. CreatedAt is kept.
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID string, kind core.Kind, id string) error

	GetProject(ctx context.Context, ownerID, projectID string) (core.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]core.Project, error)
	CountProjects(ctx context.Context, ownerID string, status core.ProjectStatus) (int, error)
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)
	UpdateProject(ctx context.Context, p core.Project) (core.Project, error)
	// DeleteProject removes the project and detaches its transactions.
	DeleteProject(ctx context.Context, ownerID, projectID string) error

	GetCategory(ctx context.Context, categoryID string) (core.Category, error)
	ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
	UpsertCategory(ctx context.Context, c core.Category) (core.Category, error)

	Ping(ctx context.Context) error
	Close() error
}
