package cacheinfra

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"
)

// BigCacheStore keeps entries off the GC-scanned heap. BigCache has no
// per-entry TTL: Config.TTL is the life window of every entry and the ttl
// given to Set and SetMulti is ignored.
type BigCacheStore struct {
	c *bc.BigCache
}

func NewBigCacheStore(cfg Config) (*BigCacheStore, error) {
	cfg.Backend = BackendBigCache
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conf := bc.DefaultConfig(cfg.TTL)
	conf.Shards = cfg.BigCache.Shards
	conf.Verbose = false
	if cfg.BigCache.CleanWindow > 0 {
		conf.CleanWindow = cfg.BigCache.CleanWindow
	}
	if cfg.BigCache.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.BigCache.MaxEntriesInWindow
	}
	if cfg.BigCache.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.BigCache.MaxEntrySize
	}
	if cfg.BigCache.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.BigCache.HardMaxCacheSizeMB
	}

	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &BigCacheStore{c: c}, nil
}

func (s *BigCacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *BigCacheStore) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		b, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = b
		}
	}
	return out, nil
}

func (s *BigCacheStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return s.c.Set(key, value)
}

func (s *BigCacheStore) SetMulti(_ context.Context, items map[string][]byte, _ time.Duration) error {
	for key, value := range items {
		if err := s.c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *BigCacheStore) Delete(_ context.Context, key string) error {
	if err := s.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (s *BigCacheStore) Close() error {
	return s.c.Close()
}
