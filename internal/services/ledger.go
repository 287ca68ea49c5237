package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"budgetbolt/internal/amqp"
	"budgetbolt/internal/core"
	"budgetbolt/internal/storage"
)

// ErrExportUnavailable is returned when no broker is configured.
var ErrExportUnavailable = errors.New("report export is not available")

// ExportPublisher hands export requests to the worker. *amqp.Client
// implements it.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, req *amqp.ExportRequest) error
	Close() error
}

// LedgerService orchestrates writes: transactions, projects and export
// requests. Reads for reports go through reports.Builder.
type LedgerService struct {
	store     storage.Store
	publisher ExportPublisher
}

// NewLedgerService accepts a nil publisher; exports are then refused.
func NewLedgerService(store storage.Store, publisher ExportPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// RecordTransaction validates references and persists tx. Project references
// must belong to the same owner; expense categories must be expense
// categories.
func (s *LedgerService) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.checkReferences(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save %s: %w", tx.Kind, err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", saved.ID,
		"kind", saved.Kind,
		"owner_id", saved.OwnerID,
		"amount", saved.Amount.String())
	return saved, nil
}

func (s *LedgerService) checkReferences(ctx context.Context, tx core.Transaction) error {
	if tx.ProjectID != "" {
		if _, err := s.store.GetProject(ctx, tx.OwnerID, tx.ProjectID); err != nil {
			return fmt.Errorf("project %s: %w", tx.ProjectID, err)
		}
	}
	if tx.CategoryID != "" {
		c, err := s.store.GetCategory(ctx, tx.CategoryID)
		if err != nil {
			return fmt.Errorf("category %s: %w", tx.CategoryID, err)
		}
		if c.Kind != tx.Kind {
			return fmt.Errorf("category %s is an %s category: %w", c.Name, c.Kind, core.ErrInvalidKind)
		}
	}
	return nil
}

// GetTransaction returns the owner's transaction of kind. An ID of the other
// kind is not found.
func (s *LedgerService) GetTransaction(ctx context.Context, ownerID string, kind core.Kind, id string) (core.Transaction, error) {
	if ownerID == "" {
		return core.Transaction{}, core.ErrMissingOwner
	}
	tx, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Kind != kind {
		return core.Transaction{}, fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return tx, nil
}

// UpdateTransaction applies patch to the stored transaction and saves it
// after the same checks as RecordTransaction.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID string, kind core.Kind, id string, patch core.TransactionPatch) (core.Transaction, error) {
	current, err := s.GetTransaction(ctx, ownerID, kind, id)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := patch.Apply(current).Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update %s: %w", kind, err)
	}
	slog.InfoContext(ctx, "Transaction updated",
		"id", saved.ID,
		"kind", saved.Kind,
		"owner_id", saved.OwnerID,
		"amount", saved.Amount.String())
	return saved, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "kind", kind, "owner_id", ownerID)
	return nil
}

func (s *LedgerService) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	saved, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return core.Project{}, fmt.Errorf("save project: %w", err)
	}
	slog.InfoContext(ctx, "Project created", "id", saved.ID, "owner_id", saved.OwnerID, "name", saved.Name)
	return saved, nil
}

// UpdateProject applies patch to the owner's project.
func (s *LedgerService) UpdateProject(ctx context.Context, ownerID, projectID string, patch core.ProjectPatch) (core.Project, error) {
	current, err := s.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return core.Project{}, err
	}
	p := patch.Apply(current)
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	saved, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	slog.InfoContext(ctx, "Project updated", "id", saved.ID, "owner_id", saved.OwnerID, "status", saved.Status)
	return saved, nil
}

// DeleteProject removes the project. Its transactions are kept without a
// project.
func (s *LedgerService) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	if ownerID == "" {
		return core.ErrMissingOwner
	}
	if err := s.store.DeleteProject(ctx, ownerID, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	slog.InfoContext(ctx, "Project deleted", "id", projectID, "owner_id", ownerID)
	return nil
}

// ListTransactions returns the owner's transactions of kind matching q,
// most recent first.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID string, kind core.Kind, q storage.Query) ([]core.Transaction, error) {
	if ownerID == "" {
		return nil, core.ErrMissingOwner
	}
	if q.Range != nil {
		if err := q.Range.Validate(); err != nil {
			return nil, err
		}
	}
	txs, err := s.store.QueryTransactions(ctx, ownerID, kind, q)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(txs, core.CompareRecent)
	return txs, nil
}

func (s *LedgerService) ListProjects(ctx context.Context, ownerID string) ([]core.Project, error) {
	if ownerID == "" {
		return nil, core.ErrMissingOwner
	}
	return s.store.ListProjects(ctx, ownerID)
}

func (s *LedgerService) GetProject(ctx context.Context, ownerID, projectID string) (core.Project, error) {
	if ownerID == "" {
		return core.Project{}, core.ErrMissingOwner
	}
	return s.store.GetProject(ctx, ownerID, projectID)
}

// ListCategories lists categories of kind; an empty kind lists all.
func (s *LedgerService) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	if kind != "" && !kind.IsValid() {
		return nil, core.ErrInvalidKind
	}
	return s.store.ListCategories(ctx, kind)
}

// Ping checks the store.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ExportEnabled reports whether a broker is configured.
func (s *LedgerService) ExportEnabled() bool {
	return s.publisher != nil
}

// RequestExport queues the monthly report of ownerID for export.
func (s *LedgerService) RequestExport(ctx context.Context, ownerID string, year, month int) (*amqp.ExportRequest, error) {
	req := amqp.NewExportRequest(ownerID, year, month)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, refusing export request", "owner_id", ownerID)
		return nil, ErrExportUnavailable
	}
	if err := s.publisher.PublishExportRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	return req, nil
}

// Close closes both storage and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
