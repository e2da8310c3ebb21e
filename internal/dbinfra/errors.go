package dbinfra

import (
	"errors"
	"strconv"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// DriverError carries a numeric code extracted from the driver error so the
// query layer can report it. Code is zero when the driver exposes none.
type DriverError struct {
	Code int
	Err  error
}

func (e *DriverError) Error() string { return e.Err.Error() }

func (e *DriverError) Unwrap() error { return e.Err }

// ErrorCode implements querycache.ErrorCoder.
func (e *DriverError) ErrorCode() int { return e.Code }

// wrapDriverError maps sqlite extended result codes and numeric postgres
// SQLSTATE classes onto DriverError.Code.
func wrapDriverError(err error) error {
	if err == nil {
		return nil
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DriverError{Code: int(liteErr.ExtendedCode), Err: err}
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		code, _ := strconv.Atoi(string(pgErr.Code))
		return &DriverError{Code: code, Err: err}
	}

	return &DriverError{Err: err}
}
