package errors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrValidation   ErrorType = "VALIDATION_ERROR"
	ErrParse        ErrorType = "PARSE_ERROR"
	ErrInvalidState ErrorType = "INVALID_STATE_ERROR"
	ErrQuoteStale   ErrorType = "QUOTE_STALE_ERROR"
	ErrSettlement   ErrorType = "SETTLEMENT_FAILURE"
)

// Error is the typed error returned across the settlement packages.
// Internal carries the wrapped cause, if any.
type Error struct {
	Type     ErrorType
	Message  string
	Internal error
}

func (e Error) Error() string {
	// settlement failures are shown as the chain reported them
	if e.Type == ErrSettlement {
		return e.Message
	}
	if e.Internal != nil && e.Internal.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e Error) Unwrap() error {
	return e.Internal
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsType reports whether any error in err's chain is an Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == t
}

func NewValidationError(msg string) Error {
	return Error{
		Type:    ErrValidation,
		Message: msg,
	}
}

func NewParseError(input string, cause error) Error {
	return Error{
		Type:     ErrParse,
		Message:  fmt.Sprintf("cannot parse %q as an amount", input),
		Internal: cause,
	}
}

func NewInvalidStateError(msg string) Error {
	return Error{
		Type:    ErrInvalidState,
		Message: msg,
	}
}

func NewQuoteStaleError(seq, latest uint64) Error {
	return Error{
		Type:    ErrQuoteStale,
		Message: fmt.Sprintf("quote response %d superseded by request %d", seq, latest),
	}
}

// NewSettlementFailure wraps the error returned by the settlement call so that
// callers can display it verbatim.
func NewSettlementFailure(cause error) Error {
	msg := "settlement call failed"
	if cause != nil {
		msg = cause.Error()
	}
	return Error{
		Type:     ErrSettlement,
		Message:  msg,
		Internal: cause,
	}
}

// AsError extracts an Error from err, or nil when err carries none.
func AsError(err error) *Error {
	e := new(Error)
	if errors.As(err, e) {
		return e
	}
	return nil
}
