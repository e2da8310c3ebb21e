package cacheinfra

import (
	"context"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// RistrettoStore is a cost-bounded in-process store. Each entry costs its
// byte length. Writes are applied before returning so a read that follows a
// write observes it unless ristretto rejected the entry.
type RistrettoStore struct {
	c          *rc.Cache
	defaultTTL time.Duration
}

func NewRistrettoStore(cfg Config) (*RistrettoStore, error) {
	cfg.Backend = BackendRistretto
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.Ristretto.NumCounters,
		MaxCost:     cfg.Ristretto.MaxCost,
		BufferItems: cfg.Ristretto.BufferItems,
		Metrics:     cfg.Ristretto.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoStore{c: c, defaultTTL: cfg.TTL}, nil
}

func (s *RistrettoStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *RistrettoStore) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if b, ok, _ := s.Get(ctx, key); ok {
			out[key] = b
		}
	}
	return out, nil
}

func (s *RistrettoStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.c.SetWithTTL(key, value, int64(len(value)), effectiveTTL(ttl, s.defaultTTL))
	s.c.Wait()
	return nil
}

func (s *RistrettoStore) SetMulti(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	ttl = effectiveTTL(ttl, s.defaultTTL)
	for key, value := range items {
		s.c.SetWithTTL(key, value, int64(len(value)), ttl)
	}
	s.c.Wait()
	return nil
}

func (s *RistrettoStore) Delete(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *RistrettoStore) Close() error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto counters when Config.Ristretto.Metrics is set.
func (s *RistrettoStore) Metrics() *rc.Metrics { return s.c.Metrics }
