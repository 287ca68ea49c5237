package backend

import (
	"context"
	"time"

	"budgetbolt/internal/cache"
	"budgetbolt/internal/storage"
)

// CleanupFunc releases the resources held by a store.
type CleanupFunc func() error

// Result is a ready-to-use store plus what the caller must close.
type Result struct {
	Store   storage.Store
	Cleanup CleanupFunc

	// CacheStats reports category cache effectiveness; nil without a cache.
	CacheStats func() cache.Stats
}

// Factory creates stores based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Category cache; a zero TTL disables it.
	CacheTTL  time.Duration
	CacheSize int
}

// Type represents the type of storage backend
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
