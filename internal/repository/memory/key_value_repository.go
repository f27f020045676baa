package memory

import (
	"context"

	"dashboard-summarizer/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type KeyValueRepository struct {
	cache *cache.Cache
}

var _ contract.KeyValueRepository = (*KeyValueRepository)(nil)

func NewKeyValueRepository() *KeyValueRepository {
	// Metadata entries never expire, so the janitor has nothing to purge.
	c := cache.New(cache.NoExpiration, 0)
	return &KeyValueRepository{
		cache: c,
	}
}

func (r *KeyValueRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	if x, found := r.cache.Get(key); found {
		if s, ok := x.(string); ok {
			return s, true, nil
		}
	}
	return "", false, nil
}

func (r *KeyValueRepository) SetItem(ctx context.Context, key string, value string) error {
	r.cache.Set(key, value, cache.NoExpiration)
	return nil
}

// Len reports the number of stored entries.
func (r *KeyValueRepository) Len() int {
	return r.cache.ItemCount()
}
