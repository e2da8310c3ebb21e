package dbinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-query-cache/querycache"
	"github.com/uptrace/bun"
)

var (
	// ErrTxActive is returned by Begin while a transaction is open.
	ErrTxActive = errors.New("transaction already active")
	// ErrNoTx is returned by Commit and Rollback without an open transaction.
	ErrNoTx = errors.New("no active transaction")
)

var trailingPaging = regexp.MustCompile(`(?is)\s+limit\s+[^()]*$`)

// BunDatabase implements querycache.Database over a bun.DB. Statements use ?
// placeholders, which bun formats for the configured dialect. Between Begin
// and Commit/Rollback every statement runs inside the open transaction.
type BunDatabase struct {
	db *bun.DB

	mu sync.Mutex
	tx *bun.Tx
}

func NewBunDatabase(db *bun.DB) *BunDatabase {
	return &BunDatabase{db: db}
}

// DB returns the underlying bun.DB.
func (d *BunDatabase) DB() *bun.DB {
	return d.db
}

func (d *BunDatabase) conn() bun.IDB {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

func (d *BunDatabase) Exec(ctx context.Context, query string, params []any) (querycache.ExecResult, error) {
	res, err := d.conn().ExecContext(ctx, query, params...)
	if err != nil {
		return querycache.ExecResult{}, wrapDriverError(err)
	}

	out := querycache.ExecResult{}
	if n, err := res.RowsAffected(); err == nil {
		out.Affected = n
	}
	// postgres reports no last insert id; callers use RETURNING there
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		out.InsertID = id
	}
	return out, nil
}

func (d *BunDatabase) FetchAll(ctx context.Context, query string, params []any) ([]querycache.Record, error) {
	var rows []map[string]any
	if err := d.conn().NewRaw(query, params...).Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapDriverError(err)
	}

	out := make([]querycache.Record, len(rows))
	for i, row := range rows {
		out[i] = normalizeRecord(row)
	}
	return out, nil
}

// FetchAllWithCount runs query and counts the full result with a wrapping
// COUNT(*) over the query stripped of its trailing LIMIT/OFFSET clause.
func (d *BunDatabase) FetchAllWithCount(ctx context.Context, query string, params []any) (querycache.CountedRows, error) {
	rows, err := d.FetchAll(ctx, query, params)
	if err != nil {
		return querycache.CountedRows{}, err
	}

	base, baseParams := stripPaging(query, params)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS counted", base)

	total, err := d.FetchScalar(ctx, countQuery, baseParams)
	if err != nil {
		return querycache.CountedRows{}, err
	}
	n, ok := total.(int64)
	if !ok {
		return querycache.CountedRows{}, wrapDriverError(fmt.Errorf("unexpected count type %T", total))
	}
	return querycache.CountedRows{Rows: rows, Total: n}, nil
}

func stripPaging(query string, params []any) (string, []any) {
	loc := trailingPaging.FindStringIndex(query)
	if loc == nil {
		return query, params
	}
	tail := query[loc[0]:]
	dropped := strings.Count(tail, "?")
	if dropped > len(params) {
		dropped = len(params)
	}
	return query[:loc[0]], params[:len(params)-dropped]
}

// FetchScalar returns the first column of the first row, nil when there is none.
func (d *BunDatabase) FetchScalar(ctx context.Context, query string, params []any) (any, error) {
	rows, err := d.conn().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, wrapDriverError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapDriverError(err)
		}
		return nil, nil
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapDriverError(err)
	}
	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, wrapDriverError(err)
	}
	if len(dest) == 0 {
		return nil, nil
	}
	return normalizeValue(dest[0]), nil
}

func (d *BunDatabase) FetchOne(ctx context.Context, query string, params []any) (querycache.Record, error) {
	row := map[string]any{}
	err := d.conn().NewRaw(query, params...).Scan(ctx, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDriverError(err)
	}
	return normalizeRecord(row), nil
}

func (d *BunDatabase) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return ErrTxActive
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDriverError(err)
	}
	d.tx = &tx
	return nil
}

func (d *BunDatabase) Commit(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return ErrNoTx
	}
	err := d.tx.Commit()
	d.tx = nil
	if err != nil {
		return wrapDriverError(err)
	}
	return nil
}

func (d *BunDatabase) Rollback(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return ErrNoTx
	}
	err := d.tx.Rollback()
	d.tx = nil
	if err != nil {
		return wrapDriverError(err)
	}
	return nil
}

// Connect applies pool settings to the underlying connection and pings it.
// Recognized keys: max_open_conns, max_idle_conns, conn_max_lifetime.
func (d *BunDatabase) Connect(ctx context.Context, settings map[string]any) error {
	if n, ok := intSetting(settings, "max_open_conns"); ok {
		d.db.SetMaxOpenConns(n)
	}
	if n, ok := intSetting(settings, "max_idle_conns"); ok {
		d.db.SetMaxIdleConns(n)
	}
	switch v := settings["conn_max_lifetime"].(type) {
	case time.Duration:
		d.db.SetConnMaxLifetime(v)
	case string:
		lifetime, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("conn_max_lifetime: %w", err)
		}
		d.db.SetConnMaxLifetime(lifetime)
	}

	if err := d.db.PingContext(ctx); err != nil {
		return wrapDriverError(err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (d *BunDatabase) Close() error {
	return d.db.Close()
}

func intSetting(settings map[string]any, key string) (int, bool) {
	switch v := settings[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func normalizeRecord(row map[string]any) querycache.Record {
	out := make(querycache.Record, len(row))
	for k, v := range row {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue turns driver byte slices into strings so records encode the
// same way through every codec.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
