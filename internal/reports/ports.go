package reports

//go:generate mockgen -source=ports.go -destination=store_mock.go -package=reports

import (
	"context"

	"budgetbolt/internal/core"
	"budgetbolt/internal/storage"
)

// Store is the read-only slice of the transaction store the report builder
// depends on. storage.Store satisfies it.
type Store interface {
	QueryTransactions(ctx context.Context, ownerID string, kind core.Kind, q storage.Query) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, ownerID string, kind core.Kind, limit int) ([]core.Transaction, error)
	GetProject(ctx context.Context, ownerID, projectID string) (core.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]core.Project, error)
	CountProjects(ctx context.Context, ownerID string, status core.ProjectStatus) (int, error)
	GetCategory(ctx context.Context, categoryID string) (core.Category, error)
}

var _ Store = (storage.Store)(nil)

// Recorder receives the outcome of every report computation.
type Recorder interface {
	ObserveReport(operation string, seconds float64, err error)
}
