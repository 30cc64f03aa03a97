// Package diffyerr defines the stable error taxonomy surfaced at every
// boundary of the diff engine (CSV reading, header reconciliation, spill
// storage, sink delivery, cancellation).
package diffyerr

import "fmt"

// Code is one of the stable, operator-facing error codes from the taxonomy.
type Code string

const (
	EmptyFile           Code = "empty_file"
	CSVParseError       Code = "csv_parse_error"
	DuplicateColumnName Code = "duplicate_column_name"
	RowWidthMismatch    Code = "row_width_mismatch"
	HeaderMismatch      Code = "header_mismatch"
	MissingKeyColumn    Code = "missing_key_column"
	MissingKeyValue     Code = "missing_key_value"
	DuplicateKey        Code = "duplicate_key"
	InvalidHeaderMode   Code = "invalid_header_mode"
	InvalidConfig       Code = "invalid_config"
	StorageError        Code = "storage_error"
	SinkError           Code = "sink_error"
	Cancelled           Code = "cancelled"
)

// Error is the concrete error type returned by the packages of this module;
// the engine wraps it in *engine.Error to add a failure kind. Message text cites the offending side (A/B), CSV row index, and
// column name wherever those are known, per the propagation policy.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New builds an Error with a formatted message and no wrapped cause.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that carries an underlying cause, following the same
// `fmt.Errorf(...: %w, err)` convention used elsewhere in this codebase.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code, so callers can
// write `errors.Is(err, diffyerr.New(diffyerr.Cancelled, ""))`-style checks,
// but most callers should prefer CodeOf below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the Code from err if it is (or wraps) a *Error, and the
// empty string otherwise.
func CodeOf(err error) Code {
	var de *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			de = e
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if de == nil {
		return ""
	}
	return de.Code
}
