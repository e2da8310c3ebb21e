package cache

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	// MaxKeyLength is the longest key handed to a Store unchanged. It matches the
	// memcached key limit so keys stay portable across backends.
	MaxKeyLength = 250

	// VersionSeparator joins a list key and its version stamp.
	VersionSeparator = "_"

	foldedPrefixLength = 200
)

// KeySerializer derives the cache keys used by the query layer.
// Implementations must be deterministic: the same inputs always map to the same key.
type KeySerializer interface {
	// RowKey builds the per-row key for an identifier.
	RowKey(prefix string, id any) string
	// VersionedKey binds a list key to a version stamp.
	VersionedKey(key string, version int64) string
	// Normalize makes an arbitrary key safe for the configured stores.
	Normalize(key string) string
}

// defaultKeySerializer concatenates prefixes and identifiers verbatim and folds
// keys longer than MaxKeyLength with an xxhash suffix.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

func (s *defaultKeySerializer) RowKey(prefix string, id any) string {
	return s.Normalize(prefix + FormatIdentifier(id))
}

func (s *defaultKeySerializer) VersionedKey(key string, version int64) string {
	return s.Normalize(key + VersionSeparator + strconv.FormatInt(version, 10))
}

func (s *defaultKeySerializer) Normalize(key string) string {
	if len(key) <= MaxKeyLength {
		return key
	}
	return key[:foldedPrefixLength] + "#" + strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// FormatIdentifier renders a scalar identifier or column value as a string.
// Integer and float kinds render without type decoration so that values coming
// from different drivers or codecs (int32, int64, uint64, float64) agree.
func FormatIdentifier(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return FormatIdentifier(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		// matches how SQL drivers without a boolean type report flags
		if rv.Bool() {
			return "1"
		}
		return "0"
	case reflect.String:
		return rv.String()
	}

	return fmt.Sprintf("%v", v)
}
