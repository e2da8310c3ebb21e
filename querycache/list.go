package querycache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

func (c *Client) fetchVersionedList(ctx context.Context, query string, params []any, opts ReadOptions) (*ResultSet, error) {
	const op = "fetch array"

	key := opts.Key
	if opts.VersionKey != "" {
		version, err := c.listVersion(ctx, opts.VersionKey, opts.TTL, opts.Trace)
		if err != nil {
			return nil, err
		}
		key = c.keys.VersionedKey(key, version)
	} else {
		key = c.keys.Normalize(key)
	}

	if !opts.Renew {
		rows, found, err := cachedValue[[]Record](ctx, c, ModeVersionedList, key, opts.Trace)
		if err != nil {
			return nil, err
		}
		if found {
			if rows == nil {
				rows = []Record{}
			}
			return indexed(rows, opts.IndexBy), nil
		}
	}

	rows, err := c.queryAll(ctx, op, query, params, opts.Trace)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Record{}
	}

	if err := c.storeValue(ctx, ModeVersionedList, key, rows, opts.TTL, opts.Trace); err != nil {
		return nil, err
	}
	return indexed(rows, opts.IndexBy), nil
}

func indexed(rows []Record, indexBy string) *ResultSet {
	rs := &ResultSet{Rows: rows}
	if indexBy != "" {
		rs.Index(indexBy)
	}
	return rs
}

// listVersion reads the version stamp under versionKey, minting and storing
// a new one when it is absent, zero or unparseable.
func (c *Client) listVersion(ctx context.Context, versionKey string, ttl time.Duration, t *Trace) (int64, error) {
	versionKey = c.keys.Normalize(versionKey)

	raw, ok, err := c.store.Get(ctx, versionKey)
	if err != nil {
		return 0, newCacheError("get", versionKey, err)
	}
	if ok {
		if v, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); perr == nil && v > 0 {
			return v, nil
		}
	}

	version := c.now().UnixNano()
	if err := c.writeVersion(ctx, versionKey, version, ttl); err != nil {
		return 0, err
	}
	c.logger.Debug("querycache: minted list version", c.fields(t, Fields{"version_key": versionKey, "version": version}))
	t.Add("minted version %d for %q", version, versionKey)
	return version, nil
}

func (c *Client) writeVersion(ctx context.Context, versionKey string, version int64, ttl time.Duration) error {
	if err := c.store.Set(ctx, versionKey, []byte(strconv.FormatInt(version, 10)), ttl); err != nil {
		return newCacheError("set", versionKey, err)
	}
	return nil
}

// BumpVersion rotates the version stamp under versionKey so that every list
// cached against the previous stamp is bypassed. The new stamp is the current
// unix time in nanoseconds, or the previous stamp plus one when the clock has
// not advanced.
func (c *Client) BumpVersion(ctx context.Context, versionKey string, ttl time.Duration) (int64, error) {
	if versionKey == "" {
		return 0, newInputError("bump version", "empty version key")
	}
	if !c.cacheAvailable() {
		return 0, nil
	}
	versionKey = c.keys.Normalize(versionKey)

	next := c.now().UnixNano()
	raw, ok, err := c.store.Get(ctx, versionKey)
	if err != nil {
		return 0, newCacheError("get", versionKey, err)
	}
	if ok {
		if prev, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); perr == nil && prev >= next {
			next = prev + 1
		}
	}

	if err := c.writeVersion(ctx, versionKey, next, ttl); err != nil {
		return 0, err
	}
	c.logger.Info("querycache: bumped list version", Fields{"version_key": versionKey, "version": next})
	return next, nil
}
