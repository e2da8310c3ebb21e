package querycache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-query-cache/cache"
)

// checkRead rejects empty queries and invalid option combinations before any
// collaborator is contacted.
func (c *Client) checkRead(op, query string, opts ReadOptions) error {
	if strings.TrimSpace(query) == "" {
		return newInputError(op, "empty query")
	}
	return opts.Validate()
}

// cachedValue probes key and decodes a hit into T. Undecodable entries count
// as misses so fresh data overwrites them; store failures are CacheErrors.
func cachedValue[T any](ctx context.Context, c *Client, mode Mode, key string, t *Trace) (T, bool, error) {
	v, found, err := cache.GetDecoded[T](ctx, c.store, c.codec, key)
	if err != nil {
		var decErr *cache.DecodeError
		if !errors.As(err, &decErr) {
			return v, false, newCacheError("get", key, err)
		}
		c.logger.Warn("querycache: dropping undecodable cache entry", c.fields(t, Fields{"key": key, "error": err.Error()}))
		found = false
	}

	if found {
		c.metrics.CacheHit(mode, 1)
		c.logger.Debug("querycache: cache hit", c.fields(t, Fields{"key": key, "mode": mode.String()}))
		t.Add("cached result found via key %q, skipping query", key)
		return v, true, nil
	}

	c.metrics.CacheMiss(mode, 1)
	c.logger.Debug("querycache: cache miss", c.fields(t, Fields{"key": key, "mode": mode.String()}))
	var zero T
	return zero, false, nil
}

func (c *Client) storeValue(ctx context.Context, mode Mode, key string, value any, ttl time.Duration, t *Trace) error {
	if err := cache.SetEncoded(ctx, c.store, c.codec, key, value, ttl); err != nil {
		return newCacheError("set", key, err)
	}
	c.metrics.CacheWrite(mode, 1)
	c.logger.Debug("querycache: cache write", c.fields(t, Fields{"key": key, "ttl": ttl.String()}))
	t.Add("saving cache via key %q", key)
	return nil
}

func (c *Client) dbFailure(op string, err error, t *Trace) *DBError {
	dbErr := newDBError(op, err)
	c.logger.Warn("querycache: database query failed", c.fields(t, Fields{"op": op, "error": dbErr.Message, "code": dbErr.Code}))
	t.Add("%s failed: %s", op, dbErr.Message)
	return dbErr
}

func (c *Client) queryAll(ctx context.Context, op, query string, params []any, t *Trace) ([]Record, error) {
	t.recordQuery(query, params)
	rows, err := c.db.FetchAll(ctx, query, params)
	c.metrics.Query(op, err)
	if err != nil {
		return nil, c.dbFailure(op, err, t)
	}
	return rows, nil
}

// FetchColumn returns the first column of the first row, or nil when the
// query yields no row. With opts.Cache and opts.Key set the value is served
// from and written to the cache; nil results are never cached.
func (c *Client) FetchColumn(ctx context.Context, query string, params []any, opts ReadOptions) (any, error) {
	const op = "fetch column"
	if err := c.checkRead(op, query, opts); err != nil {
		return nil, err
	}

	useCache := opts.keyCaching() && c.cacheAvailable()
	key := c.keys.Normalize(opts.Key)

	if useCache && !opts.Renew {
		v, found, err := cachedValue[any](ctx, c, ModeSimple, key, opts.Trace)
		if err != nil {
			return nil, err
		}
		if found {
			return v, nil
		}
	}

	opts.Trace.recordQuery(query, params)
	v, err := c.db.FetchScalar(ctx, query, params)
	c.metrics.Query(op, err)
	if err != nil {
		return nil, c.dbFailure(op, err, opts.Trace)
	}

	if useCache && v != nil {
		if err := c.storeValue(ctx, ModeSimple, key, v, opts.TTL, opts.Trace); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// FetchRow returns the first row, or nil when the query yields no row.
// Caching follows FetchColumn.
func (c *Client) FetchRow(ctx context.Context, query string, params []any, opts ReadOptions) (Record, error) {
	const op = "fetch row"
	if err := c.checkRead(op, query, opts); err != nil {
		return nil, err
	}

	useCache := opts.keyCaching() && c.cacheAvailable()
	key := c.keys.Normalize(opts.Key)

	if useCache && !opts.Renew {
		row, found, err := cachedValue[Record](ctx, c, ModeSimple, key, opts.Trace)
		if err != nil {
			return nil, err
		}
		if found {
			return row, nil
		}
	}

	opts.Trace.recordQuery(query, params)
	row, err := c.db.FetchOne(ctx, query, params)
	c.metrics.Query(op, err)
	if err != nil {
		return nil, c.dbFailure(op, err, opts.Trace)
	}

	if useCache && row != nil {
		if err := c.storeValue(ctx, ModeSimple, key, row, opts.TTL, opts.Trace); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// FetchArrayWithCount returns the rows of a paged query together with the
// total row count. Caching follows FetchColumn; an empty page is cached.
func (c *Client) FetchArrayWithCount(ctx context.Context, query string, params []any, opts ReadOptions) (*CountedRows, error) {
	const op = "fetch array with count"
	if err := c.checkRead(op, query, opts); err != nil {
		return nil, err
	}

	useCache := opts.keyCaching() && c.cacheAvailable()
	key := c.keys.Normalize(opts.Key)

	if useCache && !opts.Renew {
		counted, found, err := cachedValue[CountedRows](ctx, c, ModeSimple, key, opts.Trace)
		if err != nil {
			return nil, err
		}
		if found {
			return &counted, nil
		}
	}

	opts.Trace.recordQuery(query, params)
	counted, err := c.db.FetchAllWithCount(ctx, query, params)
	c.metrics.Query(op, err)
	if err != nil {
		return nil, c.dbFailure(op, err, opts.Trace)
	}

	if useCache {
		if err := c.storeValue(ctx, ModeSimple, key, counted, opts.TTL, opts.Trace); err != nil {
			return nil, err
		}
	}
	return &counted, nil
}
