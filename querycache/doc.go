// Package querycache is a cache-aside layer between application code and a
// relational database.
//
// A Client wraps a Database and a cache.Store. Reads go through the cache
// when the call asks for it; writes are normalized into Envelopes.
//
// # Read Modes
//
// FetchArray picks one of three strategies from its ReadOptions:
//
//   - Row level (Cache + Prefix): params are identifiers. Every row is cached
//     under Prefix+identifier. On a partial hit only the missing identifiers
//     are queried, by appending "<column> IN (?, ...)" to the query, so the
//     query must end in WHERE. Fetched rows are written back in one SetMulti.
//   - Versioned list (Cache + Key): the whole result is cached under Key. With
//     VersionKey set the key is suffixed with a version stamp kept in the
//     store; BumpVersion rotates it and strands every older entry.
//   - Simple: the query runs as given.
//
// A row-level read:
//
//	rs, err := client.FetchArray(ctx,
//		"SELECT id, name FROM users WHERE", []any{1, 2, 3},
//		querycache.ReadOptions{Cache: true, Prefix: "user.", TTL: time.Hour},
//	)
//
// FetchColumn, FetchRow and FetchArrayWithCount cache their result under Key
// alone. Absent results are never cached.
//
// # Errors
//
// Database failures are returned as *DBError, whose Envelope method yields the
// failure envelope. Store failures are returned as *CacheError and are never
// turned into database errors. Invalid input is reported as *InputError before
// any collaborator is contacted.
//
// # Writes
//
// Exec and Set return an Envelope instead of an error:
//
//	env := client.Set(ctx, []querycache.Assignment{{Column: "name", Value: "ann"}}, "users", 7, querycache.MutationOptions{})
//	if !env.Status {
//		log.Println(env.Message)
//	}
package querycache
