package di

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/config"
	"github.com/goliatone/go-query-cache/querycache"
)

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	container := newSQLiteContainer(t, memoryConfig())
	client := container.Client()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := []any{1 + w%5, 1 + (w+1)%5}
			rs, err := client.FetchArray(ctx, "SELECT * FROM users WHERE", ids, querycache.ReadOptions{Cache: true, Prefix: "user."})
			if err != nil {
				errs <- err
				return
			}
			if len(rs.Rows) != 2 {
				errs <- fmt.Errorf("worker %d: expected 2 rows, got %d", w, len(rs.Rows))
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	// every row ends up cached exactly once under its key
	raw, err := container.Store().GetMulti(ctx, []string{"user.1", "user.2", "user.3", "user.4", "user.5"})
	if err != nil {
		t.Fatalf("GetMulti() failed: %v", err)
	}
	if len(raw) != 5 {
		t.Errorf("expected 5 cached rows, got %d", len(raw))
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	ctx := context.Background()
	container := newSQLiteContainer(t, memoryConfig())
	client := container.Client()
	opts := querycache.ReadOptions{Cache: true, Key: "users.all", VersionKey: "users.ver"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := client.FetchArray(ctx, "SELECT * FROM users", nil, opts); err != nil {
				t.Errorf("FetchArray() failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := client.BumpVersion(ctx, "users.ver", 0); err != nil {
				t.Errorf("BumpVersion() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rs, err := client.FetchArray(ctx, "SELECT * FROM users", nil, opts)
	if err != nil {
		t.Fatalf("FetchArray() failed: %v", err)
	}
	if len(rs.Rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(rs.Rows))
	}
}

func TestBackendsAgree(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{cache.BackendMemory, cache.BackendSturdyc, cache.BackendRistretto, cache.BackendBigCache} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Cache.Backend = backend
			cfg.Cache.BigCache.Shards = 16
			container := newSQLiteContainer(t, cfg)
			client := container.Client()
			trace := querycache.NewTrace()
			opts := querycache.ReadOptions{Cache: true, Prefix: "user.", Trace: trace}

			for i := 0; i < 2; i++ {
				rs, err := client.FetchArray(ctx, "SELECT * FROM users WHERE", []any{2, 4}, opts)
				if err != nil {
					t.Fatalf("FetchArray() failed: %v", err)
				}
				if len(rs.Rows) != 2 {
					t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
				}
			}
			if n := len(trace.Queries()); n != 1 {
				t.Errorf("expected the second read to be served from %s, got %d queries", backend, n)
			}
		})
	}
}

func BenchmarkRowLevelCached(b *testing.B) {
	ctx := context.Background()
	container := newSQLiteContainer(b, memoryConfig())
	client := container.Client()
	opts := querycache.ReadOptions{Cache: true, Prefix: "user."}
	ids := []any{1, 2, 3, 4, 5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := client.FetchArray(ctx, "SELECT * FROM users WHERE", ids, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRowLevelUncached(b *testing.B) {
	ctx := context.Background()
	container := newSQLiteContainer(b, memoryConfig())
	client := container.Client()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := client.FetchArray(ctx, `SELECT * FROM users WHERE "id" IN (?, ?, ?, ?, ?)`, []any{1, 2, 3, 4, 5}, querycache.ReadOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRowKeyGeneration(b *testing.B) {
	ks := cache.NewDefaultKeySerializer()
	for i := 0; i < b.N; i++ {
		_ = ks.RowKey("user.", int64(i))
	}
}
