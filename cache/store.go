package cache

import (
	"context"
	"time"
)

// Store is the byte-level cache contract the query layer talks to.
// A zero ttl asks the store to apply its own default expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// GetMulti returns only the keys that were found.
	GetMulti(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMulti(ctx context.Context, items map[string][]byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PrefixDeleter is implemented by stores that can drop every key under a prefix.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// DecodeError reports a stored value the codec could not decode.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return "cache: decode " + e.Key + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// GetDecoded is a type-safe wrapper that reads key from store and decodes it with codec.
// A miss returns the zero value and false. Decode failures are reported as *DecodeError.
func GetDecoded[T any](ctx context.Context, store Store, codec Codec, key string) (T, bool, error) {
	var out T

	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}

	if err := codec.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, false, &DecodeError{Key: key, Err: err}
	}
	return out, true, nil
}

// SetEncoded encodes value with codec and writes it under key.
func SetEncoded(ctx context.Context, store Store, codec Codec, key string, value any, ttl time.Duration) error {
	raw, err := codec.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, raw, ttl)
}
