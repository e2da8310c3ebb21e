package querycache

import (
	"context"
	"reflect"
	"strings"
)

// Assignment is one column = value pair of a Set call. A slice keeps the
// column order of the generated statement stable.
type Assignment struct {
	Column string
	Value  any
}

// Set builds and runs an UPDATE or INSERT for table:
//
//   - index non-zero: UPDATE table SET c1 = ?, ... WHERE <IndexKey> = ?
//   - opts.Where set: UPDATE table SET c1 = ?, ... WHERE <Where>, with
//     opts.WhereVals bound after the SET values
//   - otherwise: INSERT INTO table (c1, ...) VALUES (?, ...)
//
// WhereVals are appended to the parameter list rather than merged at caller
// chosen positions. Every placeholder in Where follows the SET clause, so the
// appended order matches the statement's placeholders one to one.
//
// Identifiers are quoted but not validated; they must not come from user input.
// Values are always bound.
func (c *Client) Set(ctx context.Context, data []Assignment, table string, index any, opts MutationOptions) Envelope {
	if len(data) == 0 || strings.TrimSpace(table) == "" {
		return failureEnvelope(newInputError("set", "empty input"))
	}

	query, params := c.buildMutation(data, table, index, opts)
	opts.Trace.Add("set: %s", query)

	return c.Exec(ctx, query, params, ExecOptions{Trace: opts.Trace})
}

func (c *Client) buildMutation(data []Assignment, table string, index any, opts MutationOptions) (string, []any) {
	params := make([]any, 0, len(data)+len(opts.WhereVals)+1)
	var sb strings.Builder

	switch {
	case !isZeroIndex(index):
		indexKey := opts.IndexKey
		if indexKey == "" {
			indexKey = c.indexColumn
		}
		params = c.writeUpdate(&sb, data, table, params)
		sb.WriteString(" WHERE ")
		sb.WriteString(c.quoteIdent(indexKey))
		sb.WriteString(" = ?")
		params = append(params, index)
	case strings.TrimSpace(opts.Where) != "":
		params = c.writeUpdate(&sb, data, table, params)
		sb.WriteString(" WHERE ")
		sb.WriteString(opts.Where)
		params = append(params, opts.WhereVals...)
	default:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(c.quoteIdent(table))
		sb.WriteString(" (")
		for i, a := range data {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.quoteIdent(a.Column))
			params = append(params, a.Value)
		}
		sb.WriteString(") VALUES (")
		sb.WriteString(placeholders(len(data)))
		sb.WriteString(")")
	}

	return sb.String(), params
}

func (c *Client) writeUpdate(sb *strings.Builder, data []Assignment, table string, params []any) []any {
	sb.WriteString("UPDATE ")
	sb.WriteString(c.quoteIdent(table))
	sb.WriteString(" SET ")
	for i, a := range data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.quoteIdent(a.Column))
		sb.WriteString(" = ?")
		params = append(params, a.Value)
	}
	return params
}

// isZeroIndex reports whether index selects no row: nil, zero numbers, "" and "0".
func isZeroIndex(index any) bool {
	if index == nil {
		return true
	}
	if s, ok := index.(string); ok {
		return s == "" || s == "0"
	}
	rv := reflect.ValueOf(index)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return true
	}
	return rv.IsZero()
}
