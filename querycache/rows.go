package querycache

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-query-cache/cache"
)

// FetchArray returns the rows of query, resolved according to opts.Mode():
//
//   - ModeRowLevel: params are row identifiers. Each row is cached under
//     opts.Prefix+identifier; only identifiers missing from the cache are
//     queried, by appending "<column> IN (?, ...)" to query, which must
//     therefore end in WHERE.
//   - ModeVersionedList: the whole result is cached under opts.Key, suffixed
//     with the current version stamp when opts.VersionKey is set.
//   - ModeSimple: query runs as is.
//
// Without a store, row-level reads still append the IN clause for every
// distinct identifier and versioned-list reads run as ModeSimple.
func (c *Client) FetchArray(ctx context.Context, query string, params []any, opts ReadOptions) (*ResultSet, error) {
	const op = "fetch array"
	if err := c.checkRead(op, query, opts); err != nil {
		return nil, err
	}

	mode := opts.Mode()
	if mode == ModeVersionedList && !c.cacheAvailable() {
		mode = ModeSimple
	}

	switch mode {
	case ModeRowLevel:
		return c.fetchRowLevel(ctx, query, params, opts)
	case ModeVersionedList:
		return c.fetchVersionedList(ctx, query, params, opts)
	}

	rows, err := c.queryAll(ctx, op, query, params, opts.Trace)
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Rows: rows}
	if opts.IndexBy != "" {
		rs.Index(opts.IndexBy)
	}
	return rs, nil
}

type rowEntry struct {
	id       any
	idKey    string
	cacheKey string
}

// rowEntries derives one entry per distinct identifier, keeping the first
// occurrence and the caller's order.
func (c *Client) rowEntries(prefix string, ids []any) []rowEntry {
	entries := make([]rowEntry, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idKey := cache.FormatIdentifier(id)
		if _, dup := seen[idKey]; dup {
			continue
		}
		seen[idKey] = struct{}{}
		entries = append(entries, rowEntry{id: id, idKey: idKey, cacheKey: c.keys.RowKey(prefix, id)})
	}
	return entries
}

func (c *Client) fetchRowLevel(ctx context.Context, query string, ids []any, opts ReadOptions) (*ResultSet, error) {
	const op = "fetch array"
	grouped := opts.Group != nil
	byCol := opts.ByColumn
	if byCol == "" {
		byCol = c.indexColumn
	}

	entries := c.rowEntries(opts.Prefix, ids)
	if len(entries) == 0 {
		rs := &ResultSet{Rows: []Record{}}
		if grouped {
			rs = &ResultSet{Groups: map[string]Group{}}
		} else if opts.IndexBy != "" {
			rs.Index(opts.IndexBy)
		}
		return rs, nil
	}

	caching := c.cacheAvailable()
	var raw map[string][]byte
	if caching && !opts.Renew {
		keys := make([]string, len(entries))
		for i, e := range entries {
			keys[i] = e.cacheKey
		}
		var err error
		raw, err = c.store.GetMulti(ctx, keys)
		if err != nil {
			return nil, newCacheError("get multi", opts.Prefix, err)
		}
	}

	// partition into cached entries and identifiers still to query
	cachedRows := make(map[string]Record)
	cachedGroups := make(map[string]Group)
	var hits []rowEntry
	var toQuery []rowEntry
	for _, e := range entries {
		data, ok := raw[e.cacheKey]
		if ok {
			var err error
			if grouped {
				var g Group
				if err = c.codec.Unmarshal(data, &g); err == nil {
					cachedGroups[e.idKey] = g
				}
			} else {
				var row Record
				if err = c.codec.Unmarshal(data, &row); err == nil && row != nil {
					cachedRows[e.idKey] = row
				} else if err == nil {
					err = errors.New("empty record")
				}
			}
			if err == nil {
				hits = append(hits, e)
				continue
			}
			c.logger.Warn("querycache: dropping undecodable cache entry", c.fields(opts.Trace, Fields{"key": e.cacheKey, "error": err.Error()}))
		}
		toQuery = append(toQuery, e)
	}

	if caching {
		c.metrics.CacheHit(ModeRowLevel, len(hits))
		c.metrics.CacheMiss(ModeRowLevel, len(toQuery))
		c.logger.Debug("querycache: row cache probe", c.fields(opts.Trace, Fields{
			"prefix": opts.Prefix,
			"hits":   len(hits),
			"misses": len(toQuery),
		}))
	}

	if len(toQuery) == 0 {
		opts.Trace.Add("cached results found, skipping query")
		return assembleCached(hits, cachedRows, cachedGroups, grouped, byCol, opts.IndexBy), nil
	}

	col := opts.ByColumnSQL
	if col == "" {
		col = c.quoteIdent(byCol)
	}
	params := make([]any, len(toQuery))
	for i, e := range toQuery {
		params[i] = e.id
	}
	q := query + " " + col + " IN (" + placeholders(len(params)) + ")"

	rows, err := c.queryAll(ctx, op, q, params, opts.Trace)
	if err != nil {
		return nil, err
	}

	toCache := make(map[string]any, len(toQuery))
	var rs *ResultSet

	if grouped {
		groups := GroupByKey(rows, byCol, *opts.Group)
		for _, e := range toQuery {
			if g, ok := groups[e.idKey]; ok {
				toCache[e.cacheKey] = g
			}
		}
		for _, e := range hits {
			groups[e.idKey] = cachedGroups[e.idKey]
		}
		rs = &ResultSet{Groups: groups}
	} else {
		fetched := indexPresent(rows, byCol)
		for _, e := range toQuery {
			if row, ok := fetched[e.idKey]; ok {
				toCache[e.cacheKey] = row
			}
		}
		merged := make([]Record, 0, len(rows)+len(hits))
		merged = append(merged, rows...)
		for _, e := range hits {
			merged = append(merged, cachedRows[e.idKey])
		}
		rs = &ResultSet{Rows: merged}
		if opts.IndexBy != "" {
			rs.Index(opts.IndexBy)
		}
	}

	if caching && len(toCache) > 0 {
		if err := c.writeRows(ctx, toCache, opts); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// assembleCached builds the result of an all-hit probe.
func assembleCached(hits []rowEntry, rows map[string]Record, groups map[string]Group, grouped bool, byCol, indexBy string) *ResultSet {
	if grouped {
		out := make(map[string]Group, len(hits))
		for _, e := range hits {
			out[e.idKey] = groups[e.idKey]
		}
		return &ResultSet{Groups: out}
	}

	if indexBy != "" && indexBy == byCol {
		out := make(map[string]Record, len(hits))
		for _, e := range hits {
			out[e.idKey] = rows[e.idKey]
		}
		return &ResultSet{Indexed: out}
	}

	ordered := make([]Record, 0, len(hits))
	for _, e := range hits {
		ordered = append(ordered, rows[e.idKey])
	}
	rs := &ResultSet{Rows: ordered}
	if indexBy != "" {
		rs.Index(indexBy)
	}
	return rs
}

// indexPresent keys rows by col, skipping rows that lack it.
func indexPresent(rows []Record, col string) map[string]Record {
	out := make(map[string]Record, len(rows))
	for _, row := range rows {
		if v, ok := columnValue(row, col); ok {
			out[cache.FormatIdentifier(v)] = row
		}
	}
	return out
}

func (c *Client) writeRows(ctx context.Context, values map[string]any, opts ReadOptions) error {
	items := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := c.codec.Marshal(v)
		if err != nil {
			return newCacheError("encode", key, err)
		}
		items[key] = data
	}

	if err := c.store.SetMulti(ctx, items, opts.TTL); err != nil {
		return newCacheError("set multi", opts.Prefix, err)
	}

	c.metrics.CacheWrite(ModeRowLevel, len(items))
	c.logger.Debug("querycache: row cache write", c.fields(opts.Trace, Fields{"prefix": opts.Prefix, "count": len(items)}))
	opts.Trace.Add("saving %d rows in cache under prefix %q", len(items), opts.Prefix)
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
