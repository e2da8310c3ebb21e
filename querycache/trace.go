package querycache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// QueryRecord is one statement sent to the database with its bound values.
type QueryRecord struct {
	SQL    string
	Params []any
}

// Trace collects plain-text diagnostics and the statements executed during
// one request. All methods are safe on a nil *Trace, which records nothing.
type Trace struct {
	id string

	mu       sync.Mutex
	messages []string
	queries  []QueryRecord
}

// NewTrace returns an empty trace with a fresh correlation id.
func NewTrace() *Trace {
	return &Trace{id: uuid.NewString()}
}

// ID returns the correlation id attached to log fields.
func (t *Trace) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

// Add appends a formatted message.
func (t *Trace) Add(format string, args ...any) {
	if t == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// Messages returns a copy of the collected messages in insertion order.
func (t *Trace) Messages() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}

// Queries returns a copy of the executed statements in execution order.
func (t *Trace) Queries() []QueryRecord {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]QueryRecord(nil), t.queries...)
}

// Reset drops collected messages and queries, keeping the id.
func (t *Trace) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.messages = nil
	t.queries = nil
	t.mu.Unlock()
}

func (t *Trace) recordQuery(query string, params []any) {
	if t == nil {
		return
	}
	rec := QueryRecord{SQL: query, Params: append([]any(nil), params...)}

	t.mu.Lock()
	t.queries = append(t.queries, rec)
	t.mu.Unlock()
}
