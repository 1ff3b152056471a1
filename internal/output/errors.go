package output

import (
	"errors"
	"fmt"
)

// Error is the structured error surfaced to callers of the client layer.
// Instances are built by the classifier in classify.go (or the constructors
// below); nothing downstream reclassifies an error.
type Error struct {
	Kind       Kind
	HTTPStatus int    // HTTP status if the failure came from a response
	Code       string // Server-provided error code, if any
	Message    string
	Hint       string
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Kind)
}

// Retryable reports whether a higher-level retry policy may reasonably
// re-attempt the operation. The client layer itself never retries these.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// Error constructors for cases that do not originate from an HTTP exchange.

func ErrUsage(msg string) *Error {
	return &Error{Kind: KindUnknown, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Kind: KindUnknown, Message: msg, Hint: hint}
}

func ErrAuthExpired(msg string) *Error {
	return &Error{
		Kind:       KindAuthExpired,
		Message:    msg,
		Hint:       "Run: liftlog auth login",
		HTTPStatus: 401,
	}
}

// ErrInvalidLogin reports a rejected login attempt. Distinct from
// AuthExpired: the session did not expire, the credentials were wrong.
func ErrInvalidLogin() *Error {
	return &Error{
		Kind:       KindUnknown,
		HTTPStatus: 401,
		Message:    "Invalid email or password",
	}
}

// AsError converts any error to an *Error, wrapping unrecognized ones as
// KindUnknown with the cause preserved.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Kind:    KindUnknown,
		Message: err.Error(),
		Cause:   err,
	}
}

// AsClientError returns the *Error inside err, or nil if err is not one.
func AsClientError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
