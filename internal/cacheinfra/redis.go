package cacheinfra

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrNilClient = errors.New("redis store: nil client")

const scanBatch = 256

// RedisStore keeps entries in redis. Multi-key reads use MGET and multi-key
// writes a single pipeline of SETs. On a cluster client keys of one call may
// hash to different slots, so reads and deletes go out as pipelined
// single-key commands instead.
type RedisStore struct {
	rdb         goredis.UniversalClient
	defaultTTL  time.Duration
	closeClient bool
	perKey      bool
}

func newRedisStore(rdb goredis.UniversalClient, defaultTTL time.Duration, owned bool) *RedisStore {
	_, cluster := rdb.(*goredis.ClusterClient)
	return &RedisStore{rdb: rdb, defaultTTL: defaultTTL, closeClient: owned, perKey: cluster}
}

// NewRedisStore dials redis from cfg.Redis. The store owns the client and
// closes it on Close.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	cfg.Backend = BackendRedis
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:      cfg.Redis.Addrs,
		Username:   cfg.Redis.Username,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		MasterName: cfg.Redis.MasterName,
	})

	return newRedisStore(rdb, cfg.TTL, true), nil
}

// NewRedisStoreFromClient wraps an existing client. The caller keeps ownership.
func NewRedisStoreFromClient(rdb goredis.UniversalClient, defaultTTL time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	return newRedisStore(rdb, defaultTTL, false), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	if s.perKey {
		return s.getPipelined(ctx, keys)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		// nil marks a missing key
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out, nil
}

func (s *RedisStore) getPipelined(ctx context.Context, keys []string) (map[string][]byte, error) {
	cmds := make([]*goredis.StringCmd, len(keys))
	_, err := s.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Get(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, err
	}

	out := make(map[string][]byte, len(keys))
	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[keys[i]] = b
	}
	return out, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, effectiveTTL(ttl, s.defaultTTL)).Err()
}

func (s *RedisStore) SetMulti(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}

	ttl = effectiveTTL(ttl, s.defaultTTL)
	_, err := s.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for key, value := range items {
			pipe.Set(ctx, key, value, ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// DeleteByPrefix scans for keys under prefix and deletes them in batches.
// A cluster client scans every master.
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	if cluster, ok := s.rdb.(*goredis.ClusterClient); ok {
		return cluster.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			return s.deleteMatching(ctx, node, prefix)
		})
	}
	return s.deleteMatching(ctx, s.rdb, prefix)
}

func (s *RedisStore) deleteMatching(ctx context.Context, rdb goredis.Cmdable, prefix string) error {
	iter := rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.deleteKeys(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(batch) > 0 {
		return s.deleteKeys(ctx, batch)
	}
	return nil
}

func (s *RedisStore) deleteKeys(ctx context.Context, keys []string) error {
	if !s.perKey {
		return s.rdb.Del(ctx, keys...).Err()
	}
	_, err := s.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, key)
		}
		return nil
	})
	return err
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *RedisStore) Close() error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
