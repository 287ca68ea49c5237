package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"budgetbolt/internal/core"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It is used for local
// development and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]core.Transaction
	projects     map[string]core.Project
	categories   map[string]core.Category
	now          func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the default categories.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		transactions: make(map[string]core.Transaction),
		projects:     make(map[string]core.Project),
		categories:   make(map[string]core.Category),
		now:          time.Now,
	}
	for _, c := range core.DefaultCategories() {
		s.categories[c.ID] = c
	}
	return s
}

func (s *MemoryStore) QueryTransactions(ctx context.Context, ownerID string, kind core.Kind, q Query) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := q.Filter(ownerID, kind)
	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, core.CompareRecent)
	return out, nil
}

func (s *MemoryStore) RecentTransactions(ctx context.Context, ownerID string, kind core.Kind, limit int) ([]core.Transaction, error) {
	all, err := s.QueryTransactions(ctx, ownerID, kind, Query{})
	if err != nil {
		return nil, err
	}
	return core.MostRecent(all, limit), nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok || tx.OwnerID != ownerID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return tx, nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.OccurredAt = core.Naive(tx.OccurredAt)
	tx.CreatedAt = core.Naive(s.now())
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *MemoryStore) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[tx.ID]
	if !ok || existing.OwnerID != tx.OwnerID || existing.Kind != tx.Kind {
		return core.Transaction{}, fmt.Errorf("%s %s: %w", tx.Kind, tx.ID, core.ErrNotFound)
	}
	tx.OccurredAt = core.Naive(tx.OccurredAt)
	tx.CreatedAt = existing.CreatedAt
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *MemoryStore) DeleteTransaction(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.OwnerID != ownerID || tx.Kind != kind {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, ownerID, projectID string) (core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return core.Project{}, fmt.Errorf("project %s: %w", projectID, core.ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) ListProjects(ctx context.Context, ownerID string) ([]core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Project, 0)
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b core.Project) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) CountProjects(ctx context.Context, ownerID string, status core.ProjectStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.projects {
		if p.OwnerID == ownerID && p.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = core.Naive(s.now())
	s.projects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[p.ID]
	if !ok || existing.OwnerID != p.OwnerID {
		return core.Project{}, fmt.Errorf("project %s: %w", p.ID, core.ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	s.projects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return fmt.Errorf("project %s: %w", projectID, core.ErrNotFound)
	}
	delete(s.projects, projectID)
	for id, tx := range s.transactions {
		if tx.ProjectID == projectID {
			tx.ProjectID = ""
			s.transactions[id] = tx
		}
	}
	return nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, categoryID string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", categoryID, core.ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if kind == "" || c.Kind == kind {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b core.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// UpsertCategory inserts the category or, when a category with the same
// name already exists, updates it in place and keeps its ID.
func (s *MemoryStore) UpsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := core.CategoryKey(c.Name)
	for id, existing := range s.categories {
		if core.CategoryKey(existing.Name) == key {
			c.ID = id
			s.categories[id] = c
			return c, nil
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }
