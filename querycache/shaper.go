package querycache

import "github.com/goliatone/go-query-cache/cache"

// Shape identifies which ResultSet field is populated.
type Shape int

const (
	ShapeRows Shape = iota
	ShapeIndexed
	ShapeGrouped
)

func (s Shape) String() string {
	switch s {
	case ShapeIndexed:
		return "indexed"
	case ShapeGrouped:
		return "grouped"
	default:
		return "rows"
	}
}

// Group is the bucket of rows sharing one grouping value. Full-row and
// projected groups fill Rows; direct-value groups fill Values.
type Group struct {
	Rows   []Record `msgpack:"rows,omitempty" cbor:"rows,omitempty" json:"rows,omitempty"`
	Values []any    `msgpack:"values,omitempty" cbor:"values,omitempty" json:"values,omitempty"`
}

// Len reports the number of members in the group.
func (g Group) Len() int {
	if g.Values != nil {
		return len(g.Values)
	}
	return len(g.Rows)
}

// Flatten returns the members as a single slice: records for row groups,
// raw values for direct-value groups.
func (g Group) Flatten() []any {
	if g.Values != nil {
		return append([]any(nil), g.Values...)
	}
	out := make([]any, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r
	}
	return out
}

// ResultSet holds the outcome of FetchArray in exactly one shape.
type ResultSet struct {
	Rows    []Record
	Indexed map[string]Record
	Groups  map[string]Group
}

// Shape reports which field holds the result.
func (r *ResultSet) Shape() Shape {
	switch {
	case r.Groups != nil:
		return ShapeGrouped
	case r.Indexed != nil:
		return ShapeIndexed
	default:
		return ShapeRows
	}
}

// Len reports the number of rows, indexed entries or groups.
func (r *ResultSet) Len() int {
	switch r.Shape() {
	case ShapeGrouped:
		return len(r.Groups)
	case ShapeIndexed:
		return len(r.Indexed)
	default:
		return len(r.Rows)
	}
}

// Index re-keys the row sequence by col. When a row lacks col the result is
// left as a plain sequence and false is returned.
func (r *ResultSet) Index(col string) bool {
	if r.Shape() != ShapeRows {
		return false
	}
	indexed, ok := IndexByKey(r.Rows, col)
	if !ok {
		return false
	}
	r.Indexed = indexed
	r.Rows = nil
	return true
}

// columnValue returns the value of col, treating a nil value as missing.
func columnValue(row Record, col string) (any, bool) {
	v, ok := row[col]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// IndexByKey keys rows by the value of col. The first row lacking col aborts
// indexing with (nil, false) so the caller keeps the original sequence.
// Later rows win on duplicate keys.
func IndexByKey(rows []Record, col string) (map[string]Record, bool) {
	out := make(map[string]Record, len(rows))
	for _, row := range rows {
		v, ok := columnValue(row, col)
		if !ok {
			return nil, false
		}
		out[cache.FormatIdentifier(v)] = row
	}
	return out, true
}

// GroupByKey buckets rows by the value of col, preserving input order within
// each bucket. Grouping stops at the first row lacking col; groups built up
// to that point are kept.
func GroupByKey(rows []Record, col string, spec GroupSpec) map[string]Group {
	out := make(map[string]Group)
	for _, row := range rows {
		v, ok := columnValue(row, col)
		if !ok {
			break
		}
		key := cache.FormatIdentifier(v)
		g := out[key]

		switch {
		case len(spec.Columns) == 0:
			g.Rows = append(g.Rows, row)
		case spec.DirectValue:
			var direct any
			for _, c := range spec.Columns {
				if val, ok := columnValue(row, c); ok {
					direct = val
					break
				}
			}
			if g.Values == nil {
				g.Values = make([]any, 0, 1)
			}
			g.Values = append(g.Values, direct)
		default:
			reduced := make(Record, len(spec.Columns))
			for _, c := range spec.Columns {
				if val, ok := columnValue(row, c); ok {
					reduced[c] = val
				}
			}
			g.Rows = append(g.Rows, reduced)
		}

		out[key] = g
	}
	return out
}
