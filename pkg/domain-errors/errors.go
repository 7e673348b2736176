// Package domainerrors provides coded errors for the service layer.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here so transport layers can pick status codes
// without string matching. Wrap preserves the cause for errors.Is/errors.As.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that need to branch on failure kind.
type Code string

const (
	// CodeValidation marks malformed domain input detected before any store
	// access. Never partially applied.
	CodeValidation Code = "validation"

	// CodeBadRequest marks a structurally invalid request (missing IDs,
	// unparseable payloads).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks a missing or unusable authentication context.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks a principal that lacks a required permission.
	// Never retried.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks an entity that is absent or outside the caller's
	// tenant. The two cases are deliberately indistinguishable.
	CodeNotFound Code = "not_found"

	// CodeConflict marks an operation that lost against a concurrent or
	// prior mutation (e.g. a second rollback of the same entry).
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks a broken domain invariant surfaced by a
	// model constructor.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"

	// CodeInternal marks unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. Returns nil if err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal if
// the chain carries no coded error.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// Is delegates to errors.Is; kept so call sites can stay on one import.
func Is(err, target error) bool { return errors.Is(err, target) }
