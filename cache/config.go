package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-query-cache/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory    = cacheinfra.BackendMemory
	BackendSturdyc   = cacheinfra.BackendSturdyc
	BackendRedis     = cacheinfra.BackendRedis
	BackendRistretto = cacheinfra.BackendRistretto
	BackendBigCache  = cacheinfra.BackendBigCache
)

// ConfigError reports the first invalid configuration field.
type ConfigError = cacheinfra.ConfigError

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend            string          `mapstructure:"backend"`
	Codec              string          `mapstructure:"codec"`
	TTL                time.Duration   `mapstructure:"ttl"`
	Capacity           int             `mapstructure:"capacity"`
	NumShards          int             `mapstructure:"num_shards"`
	EvictionPercentage int             `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration   `mapstructure:"eviction_interval"`
	Redis              RedisConfig     `mapstructure:"redis"`
	Ristretto          RistrettoConfig `mapstructure:"ristretto"`
	BigCache           BigCacheConfig  `mapstructure:"bigcache"`
}

// RedisConfig mirrors the redis backend options.
type RedisConfig struct {
	Addrs      []string `mapstructure:"addrs"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
}

// RistrettoConfig mirrors the ristretto backend options.
type RistrettoConfig struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCost     int64 `mapstructure:"max_cost"`
	BufferItems int64 `mapstructure:"buffer_items"`
	Metrics     bool  `mapstructure:"metrics"`
}

// BigCacheConfig mirrors the bigcache backend options.
type BigCacheConfig struct {
	Shards             int           `mapstructure:"shards"`
	CleanWindow        time.Duration `mapstructure:"clean_window"`
	MaxEntriesInWindow int           `mapstructure:"max_entries_in_window"`
	MaxEntrySize       int           `mapstructure:"max_entry_size"`
	HardMaxCacheSizeMB int           `mapstructure:"hard_max_cache_size_mb"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	cfg := convertFromInternal(cacheinfra.DefaultConfig())
	cfg.Codec = CodecMsgpack
	return cfg
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := c.toInternal().Validate(); err != nil {
		return err
	}

	err := validation.Validate(c.Codec,
		validation.In(CodecMsgpack, CodecCBOR, CodecJSON).Error("must be one of msgpack, cbor, json"),
	)
	if err != nil {
		return &ConfigError{Field: "Codec", Message: err.Error()}
	}
	return nil
}

// NewStore constructs the store selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	return cacheinfra.NewStore(cfg.toInternal())
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Backend:            c.Backend,
		TTL:                c.TTL,
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		Redis: cacheinfra.RedisConfig{
			Addrs:      c.Redis.Addrs,
			Username:   c.Redis.Username,
			Password:   c.Redis.Password,
			DB:         c.Redis.DB,
			MasterName: c.Redis.MasterName,
		},
		Ristretto: cacheinfra.RistrettoConfig{
			NumCounters: c.Ristretto.NumCounters,
			MaxCost:     c.Ristretto.MaxCost,
			BufferItems: c.Ristretto.BufferItems,
			Metrics:     c.Ristretto.Metrics,
		},
		BigCache: cacheinfra.BigCacheConfig{
			Shards:             c.BigCache.Shards,
			CleanWindow:        c.BigCache.CleanWindow,
			MaxEntriesInWindow: c.BigCache.MaxEntriesInWindow,
			MaxEntrySize:       c.BigCache.MaxEntrySize,
			HardMaxCacheSizeMB: c.BigCache.HardMaxCacheSizeMB,
		},
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:            cfg.Backend,
		TTL:                cfg.TTL,
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		Redis: RedisConfig{
			Addrs:      cfg.Redis.Addrs,
			Username:   cfg.Redis.Username,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			MasterName: cfg.Redis.MasterName,
		},
		Ristretto: RistrettoConfig{
			NumCounters: cfg.Ristretto.NumCounters,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: cfg.Ristretto.BufferItems,
			Metrics:     cfg.Ristretto.Metrics,
		},
		BigCache: BigCacheConfig{
			Shards:             cfg.BigCache.Shards,
			CleanWindow:        cfg.BigCache.CleanWindow,
			MaxEntriesInWindow: cfg.BigCache.MaxEntriesInWindow,
			MaxEntrySize:       cfg.BigCache.MaxEntrySize,
			HardMaxCacheSizeMB: cfg.BigCache.HardMaxCacheSizeMB,
		},
	}
}
