// Package config loads the settings of every querycache component from a
// file and environment variables.
package config

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/database"
	"github.com/goliatone/go-query-cache/internal/cacheinfra"
	"github.com/goliatone/go-query-cache/log"
	"github.com/goliatone/go-query-cache/querycache"
)

// Config aggregates the configuration of the query layer.
type Config struct {
	Cache    cache.Config    `mapstructure:"cache"`
	Database database.Config `mapstructure:"database"`
	Log      log.Config      `mapstructure:"log"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Client   ClientConfig    `mapstructure:"client"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ClientConfig tunes querycache.Client.
type ClientConfig struct {
	// CacheEnabled turns the store off entirely when false.
	CacheEnabled bool   `mapstructure:"cache_enabled"`
	IndexColumn  string `mapstructure:"index_column"`
	// Quote selects identifier quoting: ansi or mysql.
	Quote string `mapstructure:"quote"`
}

const (
	QuoteANSI  = "ansi"
	QuoteMySQL = "mysql"
)

func DefaultConfig() Config {
	return Config{
		Cache:    cache.DefaultConfig(),
		Database: database.DefaultConfig(),
		Log:      log.DefaultConfig(),
		Client: ClientConfig{
			CacheEnabled: true,
			IndexColumn:  querycache.DefaultIndexColumn,
			Quote:        QuoteANSI,
		},
	}
}

// Validate checks every section and reports the first invalid field.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}

	client := c.Client
	err := validation.ValidateStruct(&client,
		validation.Field(&client.IndexColumn, validation.Required),
		validation.Field(&client.Quote, validation.Required, validation.In(QuoteANSI, QuoteMySQL)),
	)
	return cacheinfra.ToConfigError("Client.", err)
}

// QuoteFunc returns the identifier quoting selected by Quote.
func (c ClientConfig) QuoteFunc() func(string) string {
	if strings.EqualFold(c.Quote, QuoteMySQL) {
		return querycache.QuoteMySQL
	}
	return querycache.QuoteANSI
}

// Load reads configuration from configPath and environment variables,
// applying defaults for every key. The prefix is used for environment
// variable names: "QC" maps cache.redis.addrs to QC_CACHE_REDIS_ADDRS.
// An empty configPath reads the environment only.
func Load(configPath, envPrefix string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(configPath, envPrefix string) *Config {
	cfg, err := Load(configPath, envPrefix)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// setDefaults registers every key so environment variables can override
// nested values without a config file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.codec", d.Cache.Codec)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.num_shards", d.Cache.NumShards)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", d.Cache.EvictionInterval)
	v.SetDefault("cache.redis.addrs", d.Cache.Redis.Addrs)
	v.SetDefault("cache.redis.username", d.Cache.Redis.Username)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.master_name", d.Cache.Redis.MasterName)
	v.SetDefault("cache.ristretto.num_counters", d.Cache.Ristretto.NumCounters)
	v.SetDefault("cache.ristretto.max_cost", d.Cache.Ristretto.MaxCost)
	v.SetDefault("cache.ristretto.buffer_items", d.Cache.Ristretto.BufferItems)
	v.SetDefault("cache.ristretto.metrics", d.Cache.Ristretto.Metrics)
	v.SetDefault("cache.bigcache.shards", d.Cache.BigCache.Shards)
	v.SetDefault("cache.bigcache.clean_window", d.Cache.BigCache.CleanWindow)
	v.SetDefault("cache.bigcache.max_entries_in_window", d.Cache.BigCache.MaxEntriesInWindow)
	v.SetDefault("cache.bigcache.max_entry_size", d.Cache.BigCache.MaxEntrySize)
	v.SetDefault("cache.bigcache.hard_max_cache_size_mb", d.Cache.BigCache.HardMaxCacheSizeMB)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("log.backend", d.Log.Backend)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	v.SetDefault("client.cache_enabled", d.Client.CacheEnabled)
	v.SetDefault("client.index_column", d.Client.IndexColumn)
	v.SetDefault("client.quote", d.Client.Quote)
}
