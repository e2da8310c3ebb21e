package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycStore wraps a sturdyc client holding raw encoded values.
type SturdycStore struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdycStore creates a new sturdyc store adapter.
// It validates the configuration and initializes a sturdyc client with the provided settings.
//
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New();
// other options are applied via ToSturdycOptions().
//
// sturdyc applies one TTL to every entry, so the per-call ttl given to Set and
// SetMulti is ignored and Config.TTL governs expiry.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	cfg.Backend = BackendSturdyc
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore{client: client}, nil
}

// Get implements Store.Get.
func (s *SturdycStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// GetMulti implements Store.GetMulti. Missing keys are absent from the result.
func (s *SturdycStore) GetMulti(_ context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	return s.client.GetMany(keys), nil
}

// Set implements Store.Set.
func (s *SturdycStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.client.Set(key, value)
	return nil
}

// SetMulti implements Store.SetMulti.
func (s *SturdycStore) SetMulti(_ context.Context, items map[string][]byte, _ time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	s.client.SetMany(items)
	return nil
}

// Delete implements Store.Delete.
// Removes a single entry from the cache using the provided key.
func (s *SturdycStore) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes all entries whose keys start with the given prefix.
// This is useful for dropping every row cached under one row prefix.
func (s *SturdycStore) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// Size reports the number of entries currently held.
func (s *SturdycStore) Size() int {
	return s.client.Size()
}
