package querycache

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-query-cache/cache"
)

// DefaultIndexColumn is the identifier column used when none is configured.
const DefaultIndexColumn = "id"

// Client is the cache-aside query layer. It holds no mutable state of its own
// and is safe for concurrent use when its collaborators are.
type Client struct {
	db          Database
	store       cache.Store
	codec       cache.Codec
	keys        cache.KeySerializer
	logger      Logger
	metrics     Metrics
	now         func() time.Time
	indexColumn string
	quoteIdent  func(string) string
}

// Option configures a Client.
type Option func(*Client)

// WithCodec sets the codec for cached values. Default: msgpack.
func WithCodec(codec cache.Codec) Option {
	return func(c *Client) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger sets the logger. Default: NopLogger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink. Default: NopMetrics.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithKeySerializer replaces the key derivation.
func WithKeySerializer(ks cache.KeySerializer) Option {
	return func(c *Client) {
		if ks != nil {
			c.keys = ks
		}
	}
}

// WithClock sets the time source used to mint list versions.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIndexColumn sets the default identifier column for row caching and Set.
func WithIndexColumn(col string) Option {
	return func(c *Client) {
		if col != "" {
			c.indexColumn = col
		}
	}
}

// WithQuoteIdent sets how Set and the row resolver quote identifiers.
func WithQuoteIdent(quote func(string) string) Option {
	return func(c *Client) {
		if quote != nil {
			c.quoteIdent = quote
		}
	}
}

// QuoteANSI wraps an identifier in double quotes, doubling embedded quotes.
func QuoteANSI(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteMySQL wraps an identifier in backticks, doubling embedded backticks.
func QuoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// New creates a Client over db and store. A nil store disables caching: every
// read goes to the database.
func New(db Database, store cache.Store, opts ...Option) *Client {
	c := &Client{
		db:          db,
		store:       store,
		codec:       cache.MsgpackCodec{},
		keys:        cache.NewDefaultKeySerializer(),
		logger:      NopLogger{},
		metrics:     NopMetrics{},
		now:         time.Now,
		indexColumn: DefaultIndexColumn,
		quoteIdent:  QuoteANSI,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) cacheAvailable() bool {
	return c.store != nil
}

// Invalidate deletes the given keys from the store.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if !c.cacheAvailable() {
		return nil
	}
	for _, key := range keys {
		key = c.keys.Normalize(key)
		if err := c.store.Delete(ctx, key); err != nil {
			return newCacheError("delete", key, err)
		}
	}
	return nil
}

// InvalidatePrefix deletes every row cached under prefix. The store must
// implement cache.PrefixDeleter.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !c.cacheAvailable() {
		return nil
	}
	pd, ok := c.store.(cache.PrefixDeleter)
	if !ok {
		return newCacheError("delete prefix", prefix, ErrPrefixUnsupported)
	}
	if err := pd.DeleteByPrefix(ctx, prefix); err != nil {
		return newCacheError("delete prefix", prefix, err)
	}
	return nil
}
