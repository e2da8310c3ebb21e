package di

import (
	"context"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/config"
	"github.com/goliatone/go-query-cache/database"
	"github.com/goliatone/go-query-cache/log"
	"github.com/goliatone/go-query-cache/pkg/metrics"
	"github.com/goliatone/go-query-cache/querycache"
)

// Container provides dependency injection for the query layer.
// It builds the store, codec, database, logger and metrics from a single
// config.Config and wires them into one querycache.Client.
type Container struct {
	config  config.Config
	store   cache.Store
	codec   cache.Codec
	db      querycache.Database
	logger  querycache.Logger
	metrics querycache.Metrics
	client  *querycache.Client
	closers []io.Closer
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	db       querycache.Database
	store    cache.Store
	registry prometheus.Registerer
	clientOp []querycache.Option
}

// WithDatabase uses db instead of opening cfg.Database. The container does
// not close it.
func WithDatabase(db querycache.Database) Option {
	return func(o *options) { o.db = db }
}

// WithStore uses store instead of building cfg.Cache. The container does not
// close it.
func WithStore(store cache.Store) Option {
	return func(o *options) { o.store = store }
}

// WithRegisterer sets where Prometheus collectors are registered when
// metrics are enabled. Default: prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithClientOptions appends options applied to the querycache.Client.
func WithClientOptions(opts ...querycache.Option) Option {
	return func(o *options) { o.clientOp = append(o.clientOp, opts...) }
}

// NewContainer creates a new DI container from cfg. Components opened by the
// container are released by Close.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}

	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	c.logger = logger

	codec, err := cache.NewCodec(cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}
	c.codec = codec

	if cfg.Client.CacheEnabled {
		c.store = o.store
		if c.store == nil {
			store, err := cache.NewStore(cfg.Cache)
			if err != nil {
				return nil, err
			}
			c.store = store
			c.track(store)
		}
	}

	c.db = o.db
	if c.db == nil {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.db = db
		c.closers = append(c.closers, db)
	}

	c.metrics = querycache.NopMetrics{}
	if cfg.Metrics.Enabled {
		c.metrics = metrics.New(o.registry, cfg.Metrics.Namespace)
	}

	clientOpts := []querycache.Option{
		querycache.WithCodec(c.codec),
		querycache.WithLogger(c.logger),
		querycache.WithMetrics(c.metrics),
		querycache.WithIndexColumn(cfg.Client.IndexColumn),
		querycache.WithQuoteIdent(cfg.Client.QuoteFunc()),
	}
	c.client = querycache.New(c.db, c.store, append(clientOpts, o.clientOp...)...)

	c.logger.Info("querycache: container ready", querycache.Fields{
		"cache_backend": cfg.Cache.Backend,
		"cache_enabled": cfg.Client.CacheEnabled,
		"codec":         c.codec.Name(),
		"metrics":       cfg.Metrics.Enabled,
	})
	return c, nil
}

// NewContainerWithDefaults creates a new DI container using default
// configuration: sturdyc store, msgpack codec, in-memory SQLite.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.DefaultConfig(), opts...)
}

func (c *Container) track(v any) {
	if closer, ok := v.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
}

// Client returns the singleton query client.
func (c *Container) Client() *querycache.Client {
	return c.client
}

// Store returns the cache store, nil when caching is disabled.
func (c *Container) Store() cache.Store {
	return c.store
}

// Database returns the database the client runs against.
func (c *Container) Database() querycache.Database {
	return c.db
}

func (c *Container) Codec() cache.Codec {
	return c.codec
}

func (c *Container) Logger() querycache.Logger {
	return c.logger
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// Close releases the components the container opened, in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
