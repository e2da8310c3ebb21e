package querycache

import "context"

// Record is one database row keyed by column name.
type Record = map[string]any

// CountedRows pairs a page of rows with the total row count of the unpaged query.
type CountedRows struct {
	Rows  []Record `msgpack:"rows" cbor:"rows" json:"rows"`
	Total int64    `msgpack:"total" cbor:"total" json:"total"`
}

// ExecResult is what a database reports after a write statement.
type ExecResult struct {
	// InsertID is the generated identifier, nil when the driver reports none.
	InsertID any
	Affected int64
}

// Database is the SQL collaborator. Statements use ? placeholders and params
// are bound positionally.
type Database interface {
	Exec(ctx context.Context, query string, params []any) (ExecResult, error)
	FetchAll(ctx context.Context, query string, params []any) ([]Record, error)
	FetchAllWithCount(ctx context.Context, query string, params []any) (CountedRows, error)
	// FetchScalar returns nil when the query yields no row.
	FetchScalar(ctx context.Context, query string, params []any) (any, error)
	// FetchOne returns nil when the query yields no row.
	FetchOne(ctx context.Context, query string, params []any) (Record, error)
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connector is implemented by databases that accept late connection settings.
type Connector interface {
	Connect(ctx context.Context, settings map[string]any) error
}

// ErrorCoder is implemented by driver errors that carry a numeric code.
type ErrorCoder interface {
	ErrorCode() int
}
