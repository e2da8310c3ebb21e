package querycache_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/goliatone/go-query-cache/pkg/testsupport"
	"github.com/goliatone/go-query-cache/querycache"
)

func TestSet_Statements(t *testing.T) {
	nilPtr := (*int)(nil)
	tests := []struct {
		name       string
		data       []querycache.Assignment
		index      any
		opts       querycache.MutationOptions
		wantQuery  string
		wantParams []any
	}{
		{
			name:       "update by index",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}, {Column: "role", Value: "dev"}},
			index:      int64(5),
			wantQuery:  `UPDATE "users" SET "name" = ?, "role" = ? WHERE "id" = ?`,
			wantParams: []any{"a", "dev", int64(5)},
		},
		{
			name:       "update by custom index key",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}},
			index:      "abc",
			opts:       querycache.MutationOptions{IndexKey: "uuid"},
			wantQuery:  `UPDATE "users" SET "name" = ? WHERE "uuid" = ?`,
			wantParams: []any{"a", "abc"},
		},
		{
			name:       "update by where",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}},
			opts:       querycache.MutationOptions{Where: "team_id = ? AND id > ?", WhereVals: []any{5, 7}},
			wantQuery:  `UPDATE "users" SET "name" = ? WHERE team_id = ? AND id > ?`,
			wantParams: []any{"a", 5, 7},
		},
		{
			name:       "index wins over where",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}},
			index:      3,
			opts:       querycache.MutationOptions{Where: "1 = 1"},
			wantQuery:  `UPDATE "users" SET "name" = ? WHERE "id" = ?`,
			wantParams: []any{"a", 3},
		},
		{
			name:       "insert",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}, {Column: "team_id", Value: 10}},
			wantQuery:  `INSERT INTO "users" ("name", "team_id") VALUES (?, ?)`,
			wantParams: []any{"a", 10},
		},
		{
			name:       "zero string index inserts",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}},
			index:      "0",
			wantQuery:  `INSERT INTO "users" ("name") VALUES (?)`,
			wantParams: []any{"a"},
		},
		{
			name:       "nil pointer index inserts",
			data:       []querycache.Assignment{{Column: "name", Value: "a"}},
			index:      nilPtr,
			wantQuery:  `INSERT INTO "users" ("name") VALUES (?)`,
			wantParams: []any{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testsupport.NewFakeDB()
			db.Result = querycache.ExecResult{Affected: 1}
			client := newClient(db, nil)

			env := client.Set(context.Background(), tt.data, "users", tt.index, tt.opts)
			if !env.Status {
				t.Fatalf("expected success, got %+v", env)
			}

			calls := db.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected one exec, got %d", len(calls))
			}
			if calls[0].Query != tt.wantQuery {
				t.Errorf("expected query %q, got %q", tt.wantQuery, calls[0].Query)
			}
			if !reflect.DeepEqual(calls[0].Params, tt.wantParams) {
				t.Errorf("expected params %v, got %v", tt.wantParams, calls[0].Params)
			}
		})
	}
}

func TestSet_InsertReportsID(t *testing.T) {
	db := testsupport.NewFakeDB()
	db.Result = querycache.ExecResult{Affected: 1, InsertID: int64(42)}
	client := newClient(db, nil)

	env := client.Set(context.Background(), []querycache.Assignment{{Column: "name", Value: "a"}}, "users", nil, querycache.MutationOptions{})
	if env.Field(querycache.FieldInsertID) != int64(42) {
		t.Errorf("expected insert id 42, got %v", env.Field(querycache.FieldInsertID))
	}
	if env.Field(querycache.FieldAffected) != int64(1) {
		t.Errorf("expected 1 affected row, got %v", env.Field(querycache.FieldAffected))
	}

	// updates never report an insert id
	env = client.Set(context.Background(), []querycache.Assignment{{Column: "name", Value: "a"}}, "users", 1, querycache.MutationOptions{})
	if env.InsertID != nil {
		t.Errorf("expected no insert id for update, got %v", env.InsertID)
	}
}

func TestSet_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		client := newClient(db, nil)

		for _, env := range []querycache.Envelope{
			client.Set(ctx, nil, "users", nil, querycache.MutationOptions{}),
			client.Set(ctx, []querycache.Assignment{{Column: "a", Value: 1}}, " ", nil, querycache.MutationOptions{}),
		} {
			if env.Status || env.Message != "empty input" {
				t.Errorf("expected empty input failure, got %+v", env)
			}
			if !querycache.IsInputError(env.Err()) {
				t.Errorf("expected InputError, got %v", env.Err())
			}
		}
		if db.CallCount("") != 0 {
			t.Error("expected no database call")
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		db := testsupport.NewFakeDB()
		db.Err = codedError{msg: "Duplicate entry 'a' for key 'name'", code: 1062}
		client := newClient(db, nil)

		env := client.Set(ctx, []querycache.Assignment{{Column: "name", Value: "a"}}, "users", nil, querycache.MutationOptions{})
		if env.Status {
			t.Fatal("expected failure")
		}
		if env.Field(querycache.FieldErrorCode) != 1062 {
			t.Errorf("expected errcode 1062, got %v", env.Field(querycache.FieldErrorCode))
		}
		if env.Message != "Duplicate entry 'a' for key 'name'" {
			t.Errorf("unexpected message %q", env.Message)
		}
		if env.Affected != nil || env.InsertID != nil {
			t.Errorf("expected data fields to be unset, got %+v", env)
		}
		if !querycache.IsDBError(env.Err()) {
			t.Errorf("expected DBError, got %v", env.Err())
		}
	})
}

func TestSet_MySQLQuoting(t *testing.T) {
	db := testsupport.NewFakeDB()
	client := newClient(db, nil, querycache.WithQuoteIdent(querycache.QuoteMySQL), querycache.WithIndexColumn("user_id"))

	client.Set(context.Background(), []querycache.Assignment{{Column: "na`me", Value: "a"}}, "users", 9, querycache.MutationOptions{})
	want := "UPDATE `users` SET `na``me` = ? WHERE `user_id` = ?"
	if q := db.Calls()[0].Query; q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
}

func TestSet_Trace(t *testing.T) {
	db := testsupport.NewFakeDB()
	client := newClient(db, nil)
	trace := querycache.NewTrace()

	client.Set(context.Background(), []querycache.Assignment{{Column: "name", Value: "a"}}, "users", 2, querycache.MutationOptions{Trace: trace})

	queries := trace.Queries()
	if len(queries) != 1 || !reflect.DeepEqual(queries[0].Params, []any{"a", 2}) {
		t.Errorf("expected traced statement, got %v", queries)
	}
}
