package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores rendered list views (JSON) under string keys with a TTL.
// Two backends exist: in-process memory (default) and Redis (REDIS_URL).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix, e.g. "pacientes:".
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}
