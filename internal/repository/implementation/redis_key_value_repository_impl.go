package implementation

import (
	"context"
	"errors"

	"dashboard-summarizer/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type RedisKeyValueRepositoryImpl struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisKeyValueRepository(rdb *redis.Client, prefix string) contract.KeyValueRepository {
	return &RedisKeyValueRepositoryImpl{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (r *RedisKeyValueRepositoryImpl) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores without TTL; entries live until removed by an operator.
func (r *RedisKeyValueRepositoryImpl) SetItem(ctx context.Context, key string, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}
