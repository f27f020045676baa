package contract

import "context"

// KeyValueRepository is the persistent string-keyed store behind the metadata cache.
// Entries are never expired or removed.
type KeyValueRepository interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key string, value string) error
}
