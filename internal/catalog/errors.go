package catalog

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes catalog errors.
type ErrorCode string

const (
	// CodeUnavailable indicates the backing table could not be read.
	CodeUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	// CodeMalformed indicates the table was read but its content is invalid.
	CodeMalformed ErrorCode = "CATALOG_MALFORMED"
)

// Error is returned for any catalog failure that must abort a run.
type Error struct {
	Code ErrorCode

	// Table is the logical table name (e.g. "Test_Cases").
	Table string

	// Column names the offending column, if any.
	Column string

	// Row is the 1-based data row (header excluded), 0 when not row-specific.
	Row int

	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Table != "" {
		msg = fmt.Sprintf("%s (table=%s", msg, e.Table)
		if e.Column != "" {
			msg += ", column=" + e.Column
		}
		if e.Row > 0 {
			msg += fmt.Sprintf(", row=%d", e.Row)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable builds a CATALOG_UNAVAILABLE error for table.
func Unavailable(table string, err error) *Error {
	return &Error{
		Code:    CodeUnavailable,
		Table:   table,
		Message: "table cannot be read",
		Err:     err,
	}
}

// Malformed builds a CATALOG_MALFORMED error for table.
func Malformed(table, message string) *Error {
	return &Error{
		Code:    CodeMalformed,
		Table:   table,
		Message: message,
	}
}

// IsUnavailable reports whether err is a CATALOG_UNAVAILABLE error.
func IsUnavailable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == CodeUnavailable
	}
	return false
}

// IsMalformed reports whether err is a CATALOG_MALFORMED error.
func IsMalformed(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == CodeMalformed
	}
	return false
}
