package cacheinfra

import (
	"context"
	"time"
)

// Store is the byte-level contract every backend in this package satisfies.
// It matches cache.Store method for method.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetMulti(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMulti(ctx context.Context, items map[string][]byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewStore validates cfg and constructs the backend it names.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case BackendRedis:
		return NewRedisStore(cfg)
	case BackendRistretto:
		return NewRistrettoStore(cfg)
	case BackendBigCache:
		return NewBigCacheStore(cfg)
	default:
		return NewSturdycStore(cfg)
	}
}

func effectiveTTL(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return fallback
}
