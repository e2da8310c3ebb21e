package querycache_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/goliatone/go-query-cache/querycache"
)

type logEntry struct {
	level  string
	msg    string
	fields querycache.Fields
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, f querycache.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: f})
}

func (l *recordingLogger) Debug(msg string, f querycache.Fields) { l.add("debug", msg, f) }
func (l *recordingLogger) Info(msg string, f querycache.Fields)  { l.add("info", msg, f) }
func (l *recordingLogger) Warn(msg string, f querycache.Fields)  { l.add("warn", msg, f) }
func (l *recordingLogger) Error(msg string, f querycache.Fields) { l.add("error", msg, f) }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type countingMetrics struct {
	mu     sync.Mutex
	hits   map[querycache.Mode]int
	misses map[querycache.Mode]int
	writes map[querycache.Mode]int
	errs   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		hits:   map[querycache.Mode]int{},
		misses: map[querycache.Mode]int{},
		writes: map[querycache.Mode]int{},
	}
}

func (m *countingMetrics) CacheHit(mode querycache.Mode, n int) {
	m.mu.Lock()
	m.hits[mode] += n
	m.mu.Unlock()
}

func (m *countingMetrics) CacheMiss(mode querycache.Mode, n int) {
	m.mu.Lock()
	m.misses[mode] += n
	m.mu.Unlock()
}

func (m *countingMetrics) CacheWrite(mode querycache.Mode, n int) {
	m.mu.Lock()
	m.writes[mode] += n
	m.mu.Unlock()
}

func (m *countingMetrics) Query(_ string, err error) {
	if err != nil {
		m.mu.Lock()
		m.errs++
		m.mu.Unlock()
	}
}

func TestClient_LoggerCarriesTraceID(t *testing.T) {
	users := loadUsers(t)
	db := testsupport.NewFakeDB(users...)
	store := testsupport.NewRecordingStore()
	store.Put("user.1", []byte{0xc1})
	logger := &recordingLogger{}
	client := newClient(db, store, querycache.WithLogger(logger))
	trace := querycache.NewTrace()

	opts := rowOpts()
	opts.Trace = trace
	if _, err := client.FetchArray(context.Background(), usersWhere, []any{1}, opts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	warns := logger.byLevel("warn")
	if len(warns) != 1 {
		t.Fatalf("expected one warning for the undecodable entry, got %v", warns)
	}
	if warns[0].fields["trace_id"] != trace.ID() || warns[0].fields["key"] != "user.1" {
		t.Errorf("unexpected warning fields %v", warns[0].fields)
	}
}

func TestClient_Metrics(t *testing.T) {
	ctx := context.Background()
	users := loadUsers(t)
	db := testsupport.NewFakeDB(users...)
	store := testsupport.NewRecordingStore()
	seedUsers(t, store, users, 1)
	metrics := newCountingMetrics()
	client := newClient(db, store, querycache.WithMetrics(metrics))

	if _, err := client.FetchArray(ctx, usersWhere, []any{1, 2, 3}, rowOpts()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := client.FetchArray(ctx, allUsers, nil, querycache.ReadOptions{Cache: true, Key: "all"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if metrics.hits[querycache.ModeRowLevel] != 1 || metrics.misses[querycache.ModeRowLevel] != 2 {
		t.Errorf("unexpected row counters hits=%d misses=%d", metrics.hits[querycache.ModeRowLevel], metrics.misses[querycache.ModeRowLevel])
	}
	if metrics.writes[querycache.ModeRowLevel] != 2 {
		t.Errorf("expected 2 row writes, got %d", metrics.writes[querycache.ModeRowLevel])
	}
	if metrics.misses[querycache.ModeVersionedList] != 1 || metrics.writes[querycache.ModeVersionedList] != 1 {
		t.Errorf("unexpected list counters %v %v", metrics.misses, metrics.writes)
	}

	db.Err = errors.New("down")
	client.FetchRow(ctx, "SELECT 1", nil, querycache.ReadOptions{})
	if metrics.errs != 1 {
		t.Errorf("expected one failed query, got %d", metrics.errs)
	}
}

func TestClient_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewRecordingStore()
	store.Put("a", []byte("1"))
	store.Put("b", []byte("2"))
	store.Put("user.1", []byte("3"))
	store.Put("user.2", []byte("4"))
	client := newClient(testsupport.NewFakeDB(), store)

	if err := client.Invalidate(ctx, "a", "b"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := client.InvalidatePrefix(ctx, "user."); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("expected empty store, got %v", keys)
	}

	store.DeleteErr = errors.New("readonly")
	if err := client.Invalidate(ctx, "a"); !querycache.IsCacheError(err) {
		t.Errorf("expected CacheError, got %v", err)
	}

	var plain cache.Store = struct{ cache.Store }{testsupport.NewRecordingStore()}
	err := newClient(testsupport.NewFakeDB(), plain).InvalidatePrefix(ctx, "user.")
	if !errors.Is(err, querycache.ErrPrefixUnsupported) {
		t.Errorf("expected ErrPrefixUnsupported, got %v", err)
	}

	if err := newClient(testsupport.NewFakeDB(), nil).Invalidate(ctx, "a"); err != nil {
		t.Errorf("expected no-op without a store, got %v", err)
	}
}
