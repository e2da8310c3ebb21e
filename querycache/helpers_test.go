package querycache_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/goliatone/go-query-cache/querycache"
)

var fixedNow = time.Unix(1700000000, 0)

func loadUsers(t *testing.T) []querycache.Record {
	t.Helper()
	return testsupport.LoadRecords(t, testsupport.FixturePath("users.json"))
}

func newClient(db querycache.Database, store cache.Store, opts ...querycache.Option) *querycache.Client {
	opts = append([]querycache.Option{querycache.WithClock(func() time.Time { return fixedNow })}, opts...)
	return querycache.New(db, store, opts...)
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := cache.MsgpackCodec{}.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode %v: %v", v, err)
	}
	return raw
}

func decodeRecord(t *testing.T, raw []byte) querycache.Record {
	t.Helper()
	var row querycache.Record
	if err := (cache.MsgpackCodec{}).Unmarshal(raw, &row); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	return row
}

func decodeInto(raw []byte, dest any) error {
	return cache.MsgpackCodec{}.Unmarshal(raw, dest)
}

func userByID(rows []querycache.Record, id int64) querycache.Record {
	for _, r := range rows {
		if r["id"] == id {
			return r
		}
	}
	return nil
}

func idsOf(rows []querycache.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = cache.FormatIdentifier(r["id"])
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type codedError struct {
	msg  string
	code int
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }
