package domain

import "errors"

// Code is a machine-readable error code
type Code string

const (
	// CodeDataUnavailable means a dataset could not be loaded at startup. Fatal.
	CodeDataUnavailable Code = "DATA_UNAVAILABLE"
	// CodeNoMatchingData means a query matched zero rows. Absorbed into empty results.
	CodeNoMatchingData Code = "NO_MATCHING_DATA"
	// CodeInvariantViolation means a selection state had zero or several selected streets.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeInvalidClickReport Code = "INVALID_CLICK_REPORT"
	CodeUnknownStreet      Code = "UNKNOWN_STREET"
	CodeUnknownDirection   Code = "UNKNOWN_DIRECTION"
)

// Sentinels for errors.Is matching by code
var (
	ErrDataUnavailable    = New(CodeDataUnavailable, "data unavailable")
	ErrNoMatchingData     = New(CodeNoMatchingData, "no matching data")
	ErrInvariantViolation = New(CodeInvariantViolation, "selection invariant violated")
	ErrInvalidClickReport = New(CodeInvalidClickReport, "invalid click report")
	ErrUnknownStreet      = New(CodeUnknownStreet, "unknown street")
	ErrUnknownDirection   = New(CodeUnknownDirection, "unknown direction")
)

// Error is the domain error type
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Message for logs and API responses
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first domain error in err's chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
