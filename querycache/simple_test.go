package querycache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/goliatone/go-query-cache/querycache"
)

func TestFetchColumn(t *testing.T) {
	ctx := context.Background()

	t.Run("uncached", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		db.Scalar = int64(5)
		store := testsupport.NewRecordingStore()
		client := newClient(db, store)

		v, err := client.FetchColumn(ctx, "SELECT COUNT(*) FROM users", nil, querycache.ReadOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v != int64(5) {
			t.Errorf("expected 5, got %v", v)
		}
		if len(store.Calls()) != 0 {
			t.Errorf("expected cache to be untouched, got %v", store.Calls())
		}
	})

	t.Run("cache aside", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		db.Scalar = "ann"
		store := testsupport.NewRecordingStore()
		client := newClient(db, store)
		opts := querycache.ReadOptions{Cache: true, Key: "user.1.name", TTL: time.Second}

		for i := 0; i < 3; i++ {
			v, err := client.FetchColumn(ctx, "SELECT name FROM users WHERE id = ?", []any{1}, opts)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if v != "ann" {
				t.Errorf("expected ann, got %v", v)
			}
		}
		if db.CallCount("FetchScalar") != 1 {
			t.Errorf("expected one database call, got %d", db.CallCount("FetchScalar"))
		}
		if store.TTL("user.1.name") != time.Second {
			t.Errorf("expected TTL 1s, got %v", store.TTL("user.1.name"))
		}
	})

	t.Run("nil is not cached", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		store := testsupport.NewRecordingStore()
		client := newClient(db, store)
		opts := querycache.ReadOptions{Cache: true, Key: "missing"}

		for i := 0; i < 2; i++ {
			v, err := client.FetchColumn(ctx, "SELECT name FROM users WHERE id = 0", nil, opts)
			if err != nil || v != nil {
				t.Fatalf("expected nil value and no error, got %v %v", v, err)
			}
		}
		if db.CallCount("FetchScalar") != 2 {
			t.Errorf("expected both calls to reach the database, got %d", db.CallCount("FetchScalar"))
		}
		if len(store.WriteCalls()) != 0 {
			t.Errorf("expected no cache writes, got %v", store.WriteCalls())
		}
	})

	t.Run("renew", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		db.Scalar = "fresh"
		store := testsupport.NewRecordingStore()
		store.Put("k", encode(t, "stale"))
		client := newClient(db, store)

		v, err := client.FetchColumn(ctx, "SELECT 1", nil, querycache.ReadOptions{Cache: true, Key: "k", Renew: true})
		if err != nil || v != "fresh" {
			t.Fatalf("expected fresh value, got %v %v", v, err)
		}
		if store.CallCount("Get") != 0 {
			t.Error("expected renew to skip the probe")
		}
	})

	t.Run("database failure", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		db.Err = codedError{msg: "no such table", code: 1}
		client := newClient(db, testsupport.NewRecordingStore())

		_, err := client.FetchColumn(ctx, "SELECT x FROM nope", nil, querycache.ReadOptions{})
		var dbErr *querycache.DBError
		if !errors.As(err, &dbErr) {
			t.Fatalf("expected DBError, got %v", err)
		}
		if dbErr.Code != 1 || dbErr.Op != "fetch column" {
			t.Errorf("unexpected error fields %+v", dbErr)
		}
	})
}

func TestFetchRow(t *testing.T) {
	ctx := context.Background()
	users := loadUsers(t)

	db := testsupport.NewFakeDB(users...)
	store := testsupport.NewRecordingStore()
	client := newClient(db, store)
	opts := querycache.ReadOptions{Cache: true, Key: "user.first"}

	row, err := client.FetchRow(ctx, "SELECT * FROM users LIMIT 1", nil, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if row["name"] != "ann" {
		t.Errorf("expected ann, got %v", row)
	}

	db.Rows = nil
	row, err = client.FetchRow(ctx, "SELECT * FROM users LIMIT 1", nil, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if row["name"] != "ann" || row["id"] != int64(1) {
		t.Errorf("expected cached ann, got %v", row)
	}
	if db.CallCount("FetchOne") != 1 {
		t.Errorf("expected one database call, got %d", db.CallCount("FetchOne"))
	}

	row, err = client.FetchRow(ctx, "SELECT * FROM users LIMIT 1", nil, querycache.ReadOptions{Cache: true, Key: "user.none"})
	if err != nil || row != nil {
		t.Errorf("expected nil row, got %v %v", row, err)
	}
	if _, ok := store.Raw("user.none"); ok {
		t.Error("expected absent row not to be cached")
	}
}

func TestFetchArrayWithCount(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewFakeDB(loadUsers(t)...)
	store := testsupport.NewRecordingStore()
	client := newClient(db, store)
	opts := querycache.ReadOptions{Cache: true, Key: "users.page.1"}

	first, err := client.FetchArrayWithCount(ctx, "SELECT * FROM users LIMIT 10", nil, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := client.FetchArrayWithCount(ctx, "SELECT * FROM users LIMIT 10", nil, opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.Total != 5 || second.Total != 5 {
		t.Errorf("expected total 5, got %d and %d", first.Total, second.Total)
	}
	if len(second.Rows) != 5 {
		t.Errorf("expected 5 cached rows, got %d", len(second.Rows))
	}
	if db.CallCount("FetchAllWithCount") != 1 {
		t.Errorf("expected one database call, got %d", db.CallCount("FetchAllWithCount"))
	}
}

func TestFetch_InputErrors(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewFakeDB()
	store := testsupport.NewRecordingStore()
	client := newClient(db, store)

	tests := []struct {
		name  string
		query string
		opts  querycache.ReadOptions
	}{
		{name: "empty query", query: "  "},
		{name: "version key without key", query: "SELECT 1", opts: querycache.ReadOptions{Cache: true, VersionKey: "v"}},
		{name: "key and prefix", query: "SELECT 1", opts: querycache.ReadOptions{Cache: true, Key: "k", Prefix: "p."}},
		{name: "group without prefix", query: "SELECT 1", opts: querycache.ReadOptions{Cache: true, Group: &querycache.GroupSpec{}}},
		{name: "index with group", query: "SELECT 1", opts: querycache.ReadOptions{Cache: true, Prefix: "p.", IndexBy: "id", Group: &querycache.GroupSpec{}}},
		{name: "negative ttl", query: "SELECT 1", opts: querycache.ReadOptions{Cache: true, Key: "k", TTL: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.FetchArray(ctx, tt.query, nil, tt.opts); !querycache.IsInputError(err) {
				t.Errorf("FetchArray: expected InputError, got %v", err)
			}
			if _, err := client.FetchColumn(ctx, tt.query, nil, tt.opts); !querycache.IsInputError(err) {
				t.Errorf("FetchColumn: expected InputError, got %v", err)
			}
			if _, err := client.FetchRow(ctx, tt.query, nil, tt.opts); !querycache.IsInputError(err) {
				t.Errorf("FetchRow: expected InputError, got %v", err)
			}
			if _, err := client.FetchArrayWithCount(ctx, tt.query, nil, tt.opts); !querycache.IsInputError(err) {
				t.Errorf("FetchArrayWithCount: expected InputError, got %v", err)
			}
		})
	}

	if db.CallCount("") != 0 || len(store.Calls()) != 0 {
		t.Error("expected rejected calls to contact neither collaborator")
	}
}

func TestFetchArray_Simple(t *testing.T) {
	db := testsupport.NewFakeDB(loadUsers(t)...)
	store := testsupport.NewRecordingStore()
	client := newClient(db, store)

	rs, err := client.FetchArray(context.Background(), allUsers, nil, querycache.ReadOptions{IndexBy: "id"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rs.Indexed["3"]["name"] != "cid" {
		t.Errorf("expected indexed result, got %v", rs)
	}
	if len(store.Calls()) != 0 {
		t.Error("expected uncached read to skip the store")
	}
}

func TestFetch_TraceAndUndecodableEntry(t *testing.T) {
	db := testsupport.NewFakeDB()
	db.Scalar = int64(9)
	store := testsupport.NewRecordingStore()
	store.Put("n", []byte{0xc1})
	client := newClient(db, store)
	trace := querycache.NewTrace()

	v, err := client.FetchColumn(context.Background(), "SELECT 9", []any{"x"}, querycache.ReadOptions{Cache: true, Key: "n", Trace: trace})
	if err != nil || v != int64(9) {
		t.Fatalf("expected 9, got %v %v", v, err)
	}

	queries := trace.Queries()
	if len(queries) != 1 || queries[0].SQL != "SELECT 9" || queries[0].Params[0] != "x" {
		t.Errorf("expected recorded query, got %v", queries)
	}
	if len(trace.Messages()) == 0 {
		t.Error("expected trace messages")
	}
}
