package interfaces

import (
	"context"

	"github.com/ternarybob/intake/internal/models"
)

// MemoryStorage persists and indexes processing results with TTL.
// Store writes the entry and every secondary index atomically; a reader
// never observes an entry present in one index but absent from another.
// Expiration is owned by the backing store and removes primary and
// index keys together.
type MemoryStorage interface {
	// Store assigns a new ID, persists the entry and all its index
	// keys in one transaction, and returns the ID.
	Store(ctx context.Context, entry *models.MemoryEntry) (string, error)

	// Get returns the entry for id, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.MemoryEntry, error)

	// Query resolves the filter against a secondary index and returns
	// up to limit entries, most recent first. It never scans the full
	// store; an empty filter falls back to the recency index.
	Query(ctx context.Context, filter models.MemoryFilter, limit int) ([]*models.MemoryEntry, error)
}

// KeyValueStorage is a small settings/credential store backed by the
// same database as memory entries.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// StorageManager bundles the storage interfaces behind one lifecycle.
type StorageManager interface {
	MemoryStorage() MemoryStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
