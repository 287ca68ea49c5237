package storage

import (
	"context"

	"budgetbolt/internal/cache"
	"budgetbolt/internal/core"
)

// CachedStore serves category lookups from a cache. Categories are global
// reference data read by every monthly report; everything else passes
// straight through to the wrapped store.
type CachedStore struct {
	Store
	categories cache.Cache[core.Category]
}

func NewCachedStore(s Store, categories cache.Cache[core.Category]) *CachedStore {
	return &CachedStore{Store: s, categories: categories}
}

func (c *CachedStore) GetCategory(ctx context.Context, categoryID string) (core.Category, error) {
	if cat, ok := c.categories.Get(categoryID); ok {
		return cat, nil
	}
	cat, err := c.Store.GetCategory(ctx, categoryID)
	if err != nil {
		return core.Category{}, err
	}
	c.categories.Set(categoryID, cat)
	return cat, nil
}

func (c *CachedStore) UpsertCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	saved, err := c.Store.UpsertCategory(ctx, cat)
	if err != nil {
		return core.Category{}, err
	}
	c.categories.Delete(saved.ID)
	return saved, nil
}
