package querycache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Mode is the read strategy chosen once per FetchArray call.
type Mode int

const (
	// ModeSimple reads straight from the database.
	ModeSimple Mode = iota
	// ModeRowLevel caches each row under prefix+identifier and re-queries only misses.
	ModeRowLevel
	// ModeVersionedList caches the whole result under one key, optionally versioned.
	ModeVersionedList
)

func (m Mode) String() string {
	switch m {
	case ModeRowLevel:
		return "row"
	case ModeVersionedList:
		return "list"
	default:
		return "simple"
	}
}

// GroupSpec turns a row-level result into groups keyed by the identifier column.
type GroupSpec struct {
	// Columns projects each grouped row onto these columns. Empty keeps full rows.
	Columns []string
	// DirectValue stores the first present projected column's value instead of
	// a reduced record.
	DirectValue bool
}

// ReadOptions controls caching for the Fetch* methods.
type ReadOptions struct {
	// Cache enables caching for the call.
	Cache bool
	// Key is the cache key for whole-result caching.
	Key string
	// Prefix enables per-row caching; each row is keyed Prefix+identifier.
	// The query must end in a WHERE so an IN clause can be appended.
	Prefix string
	// ByColumn names the row column holding the identifier. Default: the
	// client index column.
	ByColumn string
	// ByColumnSQL overrides the SQL expression used in the appended IN clause.
	ByColumnSQL string
	Group       *GroupSpec
	// TTL applies to cache writes. Zero uses the store default.
	TTL time.Duration
	// VersionKey names the cache entry holding the list version stamp.
	VersionKey string
	// Renew skips the cache probe and overwrites entries with fresh data.
	Renew bool
	// IndexBy re-keys the returned rows by this column.
	IndexBy string
	Trace   *Trace
}

// Validate rejects option combinations that cannot be honored.
func (o ReadOptions) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.Key,
			validation.When(o.VersionKey != "", validation.Required.Error("is required when VersionKey is set")),
			validation.When(o.Prefix != "", validation.Empty.Error("cannot be combined with Prefix")),
		),
		validation.Field(&o.Prefix,
			validation.When(o.Group != nil, validation.Required.Error("is required when Group is set")),
		),
		validation.Field(&o.IndexBy,
			validation.When(o.Group != nil, validation.Empty.Error("cannot be combined with Group")),
		),
		validation.Field(&o.TTL,
			validation.Min(time.Duration(0)).Error("must not be negative"),
		),
	)
	if err != nil {
		return &InputError{Op: "options", Message: err.Error(), Err: err}
	}
	return nil
}

// Mode reports the read strategy these options select.
func (o ReadOptions) Mode() Mode {
	switch {
	case o.Cache && o.Prefix != "":
		return ModeRowLevel
	case o.Cache && o.Key != "":
		return ModeVersionedList
	default:
		return ModeSimple
	}
}

func (o ReadOptions) keyCaching() bool {
	return o.Cache && o.Key != ""
}

// MutationOptions controls Set.
type MutationOptions struct {
	// IndexKey is the column matched against the index argument. Default: the
	// client index column.
	IndexKey string
	// Where is a manual predicate used when no index is given.
	Where string
	// WhereVals are bound after the SET values, in order.
	WhereVals []any
	Trace     *Trace
}

// CommitOptions controls Commit.
type CommitOptions struct {
	Trace *Trace
}
