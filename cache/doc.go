// Package cache provides the store contract, value codecs and key derivation
// used by the query cache layer.
//
// # Overview
//
// This package exports three building blocks:
//
//   - Store: a byte-level key/value contract with multi-key reads and writes
//   - Codec: encodes records, row lists and groups to bytes (msgpack, CBOR, JSON)
//   - KeySerializer: derives row keys, versioned list keys and folds long keys
//
// Concrete stores live behind NewStore, selected by Config.Backend:
//
//	cfg := cache.DefaultConfig()
//	cfg.Backend = cache.BackendRedis
//	cfg.Redis.Addrs = []string{"localhost:6379"}
//	store, err := cache.NewStore(cfg)
//
// # Key Derivation
//
// Row keys are the row prefix followed by the identifier rendered with
// FormatIdentifier, so int64(7), int32(7), uint64(7) and "7" share one key.
// Versioned list keys append VersionSeparator and the decimal version stamp.
// Keys longer than MaxKeyLength keep their first 200 bytes and gain an xxhash
// suffix, which keeps them valid for memcached-like backends.
//
// # Codecs
//
// Decoding into interface values always yields map[string]any for nested maps.
// Msgpack and CBOR decode integers as 64-bit integers; JSON decodes every
// number as float64, which is why msgpack is the default.
//
// # Typed Access
//
// GetDecoded and SetEncoded pair a Store with a Codec:
//
//	row, found, err := cache.GetDecoded[map[string]any](ctx, store, codec, "user.7")
package cache
