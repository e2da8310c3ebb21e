package cacheinfra

import (
	"errors"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Backend names understood by NewStore.
const (
	BackendMemory    = "memory"
	BackendSturdyc   = "sturdyc"
	BackendRedis     = "redis"
	BackendRistretto = "ristretto"
	BackendBigCache  = "bigcache"
)

// Config holds the configuration for every store backend. Only the section
// matching Backend is validated and used.
type Config struct {
	// Backend selects the store implementation. Default: sturdyc
	Backend string

	// TTL is the default time-to-live applied when a write carries no TTL.
	// Must be greater than 0.
	TTL time.Duration

	// Capacity defines the maximum number of entries for the sturdyc backend.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of sturdyc shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// EvictionPercentage specifies what percentage of sturdyc entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often sturdyc checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration

	Redis     RedisConfig
	Ristretto RistrettoConfig
	BigCache  BigCacheConfig
}

// RedisConfig configures the redis backend. A single address connects to a
// standalone server; several addresses select cluster or sentinel mode.
type RedisConfig struct {
	Addrs      []string
	Username   string
	Password   string
	DB         int
	MasterName string
}

// RistrettoConfig mirrors the ristretto sizing knobs. Cost is the byte length
// of the stored value, so MaxCost is a memory budget in bytes.
type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

// BigCacheConfig configures the bigcache backend. Entries share the global
// TTL as their life window.
type BigCacheConfig struct {
	Shards             int
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendSturdyc,
		TTL:                5 * time.Minute,
		Capacity:           10000,
		NumShards:          256,
		EvictionPercentage: 10,
		EvictionInterval:   0, // Use default
		Redis: RedisConfig{
			Addrs: []string{"127.0.0.1:6379"},
		},
		Ristretto: RistrettoConfig{
			NumCounters: 1e6,
			MaxCost:     64 << 20,
			BufferItems: 64,
		},
		BigCache: BigCacheConfig{
			Shards:             64,
			CleanWindow:        time.Minute,
			MaxEntriesInWindow: 10000,
			MaxEntrySize:       500,
		},
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
// The first offending field is reported as a *ConfigError.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend,
			validation.Required,
			validation.In(BackendMemory, BackendSturdyc, BackendRedis, BackendRistretto, BackendBigCache).
				Error("must be one of memory, sturdyc, redis, ristretto, bigcache"),
		),
		validation.Field(&c.TTL,
			validation.Required.Error("must be greater than 0"),
			validation.Min(time.Duration(1)).Error("must be greater than 0"),
		),
		validation.Field(&c.EvictionInterval,
			validation.Min(time.Duration(0)).Error("must be non-negative"),
		),
	)
	if err != nil {
		return ToConfigError("", err)
	}

	switch c.Backend {
	case BackendSturdyc:
		err = validation.ValidateStruct(&c,
			validation.Field(&c.Capacity,
				validation.Required.Error("must be greater than 0"),
				validation.Min(1).Error("must be greater than 0"),
			),
			validation.Field(&c.NumShards,
				validation.Required.Error("must be greater than 0"),
				validation.Min(1).Error("must be greater than 0"),
			),
			validation.Field(&c.EvictionPercentage,
				validation.Required.Error("must be between 1 and 100"),
				validation.Min(1).Error("must be between 1 and 100"),
				validation.Max(100).Error("must be between 1 and 100"),
			),
		)
		return ToConfigError("", err)
	case BackendRedis:
		r := c.Redis
		err = validation.ValidateStruct(&r,
			validation.Field(&r.Addrs, validation.Required.Error("must contain at least one address")),
			validation.Field(&r.DB, validation.Min(0).Error("must be non-negative")),
		)
		return ToConfigError("Redis.", err)
	case BackendRistretto:
		r := c.Ristretto
		err = validation.ValidateStruct(&r,
			validation.Field(&r.NumCounters, validation.Required.Error("must be greater than 0"), validation.Min(int64(1))),
			validation.Field(&r.MaxCost, validation.Required.Error("must be greater than 0"), validation.Min(int64(1))),
			validation.Field(&r.BufferItems, validation.Required.Error("must be greater than 0"), validation.Min(int64(1))),
		)
		return ToConfigError("Ristretto.", err)
	case BackendBigCache:
		b := c.BigCache
		err = validation.ValidateStruct(&b,
			validation.Field(&b.Shards, validation.Required.Error("must be a power of two"), validation.By(powerOfTwo)),
			validation.Field(&b.MaxEntriesInWindow, validation.Min(0).Error("must be non-negative")),
			validation.Field(&b.MaxEntrySize, validation.Min(0).Error("must be non-negative")),
			validation.Field(&b.HardMaxCacheSizeMB, validation.Min(0).Error("must be non-negative")),
		)
		return ToConfigError("BigCache.", err)
	}

	return nil
}

func powerOfTwo(value any) error {
	n, _ := value.(int)
	if n <= 0 || n&(n-1) != 0 {
		return errors.New("must be a power of two")
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// ToConfigError reduces ozzo validation errors to the first failing field in
// name order so callers get a stable, single error.
func ToConfigError(prefix string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	first := fields[0]
	return &ConfigError{Field: prefix + first, Message: verrs[first].Error()}
}
