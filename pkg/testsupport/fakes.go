package testsupport

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/querycache"
)

// Call records one invocation of a FakeDB method.
type Call struct {
	Method string
	Query  string
	Params []any
}

// FakeDB is an in-memory querycache.Database that records every call.
// FetchAll answers "... IN (?, ...)" queries by matching params against
// KeyColumn and returns the whole table otherwise.
type FakeDB struct {
	Rows      []querycache.Record
	KeyColumn string
	Scalar    any
	Result    querycache.ExecResult

	// Err is returned by every query and exec method when set.
	Err         error
	BeginErr    error
	CommitErr   error
	RollbackErr error
	ConnectErr  error

	mu        sync.Mutex
	calls     []Call
	connected map[string]any
}

// NewFakeDB creates a fake holding rows, matched on the "id" column.
func NewFakeDB(rows ...querycache.Record) *FakeDB {
	return &FakeDB{Rows: rows, KeyColumn: "id"}
}

func (f *FakeDB) record(method, query string, params []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Query: query, Params: append([]any(nil), params...)})
}

// Calls returns a copy of the recorded calls.
func (f *FakeDB) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount reports how many times method was invoked. An empty method counts all calls.
func (f *FakeDB) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *FakeDB) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// ConnectedWith returns the settings passed to the last Connect call.
func (f *FakeDB) ConnectedWith() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeDB) matching(query string, params []any) []querycache.Record {
	out := make([]querycache.Record, 0, len(f.Rows))
	if !strings.Contains(query, " IN (") || len(params) == 0 {
		for _, row := range f.Rows {
			out = append(out, maps.Clone(row))
		}
		return out
	}

	wanted := make(map[string]struct{}, len(params))
	for _, p := range params {
		wanted[cache.FormatIdentifier(p)] = struct{}{}
	}
	col := f.KeyColumn
	if col == "" {
		col = "id"
	}
	for _, row := range f.Rows {
		if _, ok := wanted[cache.FormatIdentifier(row[col])]; ok {
			out = append(out, maps.Clone(row))
		}
	}
	return out
}

func (f *FakeDB) Exec(_ context.Context, query string, params []any) (querycache.ExecResult, error) {
	f.record("Exec", query, params)
	if f.Err != nil {
		return querycache.ExecResult{}, f.Err
	}
	return f.Result, nil
}

func (f *FakeDB) FetchAll(_ context.Context, query string, params []any) ([]querycache.Record, error) {
	f.record("FetchAll", query, params)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.matching(query, params), nil
}

func (f *FakeDB) FetchAllWithCount(_ context.Context, query string, params []any) (querycache.CountedRows, error) {
	f.record("FetchAllWithCount", query, params)
	if f.Err != nil {
		return querycache.CountedRows{}, f.Err
	}
	rows := f.matching(query, params)
	return querycache.CountedRows{Rows: rows, Total: int64(len(rows))}, nil
}

func (f *FakeDB) FetchScalar(_ context.Context, query string, params []any) (any, error) {
	f.record("FetchScalar", query, params)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Scalar, nil
}

func (f *FakeDB) FetchOne(_ context.Context, query string, params []any) (querycache.Record, error) {
	f.record("FetchOne", query, params)
	if f.Err != nil {
		return nil, f.Err
	}
	rows := f.matching(query, params)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (f *FakeDB) Begin(context.Context) error {
	f.record("Begin", "", nil)
	return f.BeginErr
}

func (f *FakeDB) Commit(context.Context) error {
	f.record("Commit", "", nil)
	return f.CommitErr
}

func (f *FakeDB) Rollback(context.Context) error {
	f.record("Rollback", "", nil)
	return f.RollbackErr
}

func (f *FakeDB) Connect(_ context.Context, settings map[string]any) error {
	f.record("Connect", "", nil)
	f.mu.Lock()
	f.connected = settings
	f.mu.Unlock()
	return f.ConnectErr
}

// StoreCall records one invocation of a RecordingStore method.
type StoreCall struct {
	Method string
	Keys   []string
	TTL    time.Duration
}

// RecordingStore is an in-memory cache.Store that records every call and the
// TTL of every write. Expiry is not simulated.
type RecordingStore struct {
	GetErr    error
	SetErr    error
	DeleteErr error

	mu    sync.Mutex
	data  map[string][]byte
	ttls  map[string]time.Duration
	calls []StoreCall
}

func NewRecordingStore() *RecordingStore {
	return &RecordingStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (s *RecordingStore) record(method string, keys []string, ttl time.Duration) {
	s.calls = append(s.calls, StoreCall{Method: method, Keys: keys, TTL: ttl})
}

func (s *RecordingStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Get", []string{key}, 0)
	if s.GetErr != nil {
		return nil, false, s.GetErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *RecordingStore) GetMulti(_ context.Context, keys []string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("GetMulti", append([]string(nil), keys...), 0)
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *RecordingStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Set", []string{key}, ttl)
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = append([]byte(nil), value...)
	s.ttls[key] = ttl
	return nil
}

func (s *RecordingStore) SetMulti(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.record("SetMulti", keys, ttl)
	if s.SetErr != nil {
		return s.SetErr
	}
	for k, v := range items {
		s.data[k] = append([]byte(nil), v...)
		s.ttls[k] = ttl
	}
	return nil
}

func (s *RecordingStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Delete", []string{key}, 0)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.data, key)
	delete(s.ttls, key)
	return nil
}

func (s *RecordingStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DeleteByPrefix", []string{prefix}, 0)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			delete(s.ttls, k)
		}
	}
	return nil
}

// Put seeds a raw entry without recording a call.
func (s *RecordingStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Raw returns the stored bytes for key.
func (s *RecordingStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// TTL returns the ttl of the last write to key.
func (s *RecordingStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

// Keys returns the stored keys in sorted order.
func (s *RecordingStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns a copy of the recorded calls.
func (s *RecordingStore) Calls() []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoreCall(nil), s.calls...)
}

// CallCount reports how many times method was invoked.
func (s *RecordingStore) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// WriteCalls returns only Set and SetMulti calls.
func (s *RecordingStore) WriteCalls() []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StoreCall
	for _, c := range s.calls {
		if c.Method == "Set" || c.Method == "SetMulti" {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls and keeps the data.
func (s *RecordingStore) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}
