package querycache

import (
	"errors"
	"fmt"
)

// InputError reports a call rejected before any collaborator was contacted:
// an empty query, an invalid option combination or empty mutation input.
type InputError struct {
	Op      string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("querycache: %s: %s", e.Op, e.Message)
}

func (e *InputError) Unwrap() error { return e.Err }

// DBError wraps every database failure. Code is the driver error code when the
// driver exposes one, zero otherwise.
type DBError struct {
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *DBError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("querycache: database %s failed (code %d): %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("querycache: database %s failed: %s", e.Op, e.Message)
}

func (e *DBError) Unwrap() error { return e.Err }

// Envelope returns the failure envelope describing this error.
func (e *DBError) Envelope() Envelope {
	return failureEnvelope(e)
}

// CacheError wraps a store or codec failure. Cache errors are surfaced as is:
// they are never converted into a DBError and never swallowed.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("querycache: cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("querycache: cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

func newInputError(op, message string) *InputError {
	return &InputError{Op: op, Message: message}
}

func newDBError(op string, err error) *DBError {
	dbErr := &DBError{Op: op, Message: err.Error(), Err: err}

	var coder ErrorCoder
	if errors.As(err, &coder) {
		dbErr.Code = coder.ErrorCode()
	}
	return dbErr
}

func newCacheError(op, key string, err error) *CacheError {
	return &CacheError{Op: op, Key: key, Err: err}
}

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsDBError reports whether err is or wraps a *DBError.
func IsDBError(err error) bool {
	var target *DBError
	return errors.As(err, &target)
}

// IsCacheError reports whether err is or wraps a *CacheError.
func IsCacheError(err error) bool {
	var target *CacheError
	return errors.As(err, &target)
}

// ErrPrefixUnsupported is returned by InvalidatePrefix when the store cannot
// delete by prefix.
var ErrPrefixUnsupported = errors.New("store does not support prefix deletion")
