package backend

import (
	"context"
	"fmt"

	"budgetbolt/internal/cache"
	"budgetbolt/internal/core"
	"budgetbolt/internal/log"
	"budgetbolt/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore opens the configured store and, when a cache TTL is set,
// serves category lookups through an LRU cache expired by a cache.Manager.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		store, err = storage.NewPostgresStore(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("storage not reachable: %w", err)
	}

	res := &Result{Store: store, Cleanup: store.Close}
	if config.CacheTTL == 0 {
		return res, nil
	}

	categories := cache.NewLRUCache[core.Category](config.CacheSize, config.CacheTTL)
	manager := cache.NewManager()
	manager.Register("categories", categories)
	manager.StartCleanup(config.CacheTTL)

	res.Store = storage.NewCachedStore(store, categories)
	res.CacheStats = categories.Stats
	res.Cleanup = func() error {
		manager.Stop()
		return store.Close()
	}

	f.logger.Info("Category cache enabled", "ttl", config.CacheTTL.String(), "size", config.CacheSize)
	return res, nil
}
