package querycache

import (
	"context"
	"errors"
	"strings"
)

// Field names accepted by Envelope.Field.
const (
	FieldStatus    = "status"
	FieldMessage   = "message"
	FieldAffected  = "affected"
	FieldInsertID  = "insert_id"
	FieldErrorCode = "errcode"
)

// Envelope is the uniform outcome of a write. On failure Status is false,
// Message is set and the data fields are nil.
type Envelope struct {
	Status    bool
	Message   string
	Affected  *int64
	InsertID  any
	ErrorCode *int

	err error
}

// Err returns the error behind a failed envelope, nil on success.
func (e Envelope) Err() error { return e.err }

// Field projects a single field by name. Unset and unknown fields yield nil.
func (e Envelope) Field(name string) any {
	switch name {
	case FieldStatus:
		return e.Status
	case FieldMessage:
		return e.Message
	case FieldAffected:
		if e.Affected == nil {
			return nil
		}
		return *e.Affected
	case FieldInsertID:
		return e.InsertID
	case FieldErrorCode:
		if e.ErrorCode == nil {
			return nil
		}
		return *e.ErrorCode
	}
	return nil
}

func successEnvelope(res ExecResult, insert bool) Envelope {
	affected := res.Affected
	env := Envelope{Status: true, Affected: &affected}
	if insert && positiveID(res.InsertID) {
		env.InsertID = res.InsertID
	}
	return env
}

func failureEnvelope(err error) Envelope {
	env := Envelope{Message: err.Error(), err: err}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		env.Message = dbErr.Message
		if dbErr.Code != 0 {
			code := dbErr.Code
			env.ErrorCode = &code
		}
	}

	var inErr *InputError
	if errors.As(err, &inErr) {
		env.Message = inErr.Message
	}
	return env
}

func positiveID(id any) bool {
	switch v := id.(type) {
	case nil:
		return false
	case int64:
		return v > 0
	case int:
		return v > 0
	case int32:
		return v > 0
	case uint64:
		return v > 0
	case uint32:
		return v > 0
	case float64:
		return v > 0
	case string:
		return v != "" && v != "0"
	}
	return true
}

func isInsert(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "INSERT")
}

// ExecOptions carries per-call settings for Exec.
type ExecOptions struct {
	Trace *Trace
}

// Exec runs a write statement and normalizes the outcome into an Envelope.
// Failures never escape as errors; inspect Status or Err instead.
func (c *Client) Exec(ctx context.Context, query string, params []any, opts ExecOptions) Envelope {
	if strings.TrimSpace(query) == "" {
		return failureEnvelope(newInputError("exec", "empty query"))
	}

	opts.Trace.recordQuery(query, params)

	res, err := c.db.Exec(ctx, query, params)
	c.metrics.Query("exec", err)
	if err != nil {
		dbErr := newDBError("exec", err)
		c.logger.Warn("querycache: exec failed", c.fields(opts.Trace, Fields{"error": dbErr.Message, "code": dbErr.Code}))
		opts.Trace.Add("exec failed: %s", dbErr.Message)
		return failureEnvelope(dbErr)
	}

	return successEnvelope(res, isInsert(query))
}
