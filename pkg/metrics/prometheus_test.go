package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/goliatone/go-query-cache/querycache"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "app")

	m.CacheHit(querycache.ModeRowLevel, 3)
	m.CacheMiss(querycache.ModeRowLevel, 2)
	m.CacheWrite(querycache.ModeVersionedList, 1)
	m.Query("fetch array", nil)
	m.Query("fetch array", errors.New("boom"))

	if got := testutil.ToFloat64(m.hits.WithLabelValues("row")); got != 3 {
		t.Errorf("expected 3 hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.misses.WithLabelValues("row")); got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.writes.WithLabelValues("list")); got != 1 {
		t.Errorf("expected 1 write, got %v", got)
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues("fetch array")); got != 2 {
		t.Errorf("expected 2 queries, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("fetch array")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(families) != 5 {
		t.Errorf("expected 5 metric families, got %d", len(families))
	}
	if name := families[0].GetName(); name != "app_querycache_cache_hits_total" {
		t.Errorf("unexpected first family %s", name)
	}
}

func TestPrometheus_WithClient(t *testing.T) {
	m := New(prometheus.NewRegistry(), "")
	db := testsupport.NewFakeDB(querycache.Record{"id": int64(1)}, querycache.Record{"id": int64(2)})
	client := querycache.New(db, testsupport.NewRecordingStore(), querycache.WithMetrics(m))

	opts := querycache.ReadOptions{Cache: true, Prefix: "row."}
	for i := 0; i < 2; i++ {
		if _, err := client.FetchArray(context.Background(), "SELECT * FROM t WHERE", []any{1, 2}, opts); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	if got := testutil.ToFloat64(m.misses.WithLabelValues("row")); got != 2 {
		t.Errorf("expected 2 misses on the first call, got %v", got)
	}
	if got := testutil.ToFloat64(m.hits.WithLabelValues("row")); got != 2 {
		t.Errorf("expected 2 hits on the second call, got %v", got)
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues("fetch array")); got != 1 {
		t.Errorf("expected 1 query, got %v", got)
	}
}
