package scheduler

import (
	"fmt"
	"strconv"
)

// ErrorCode is a numeric completion code delivered as the leading argument
// of error-code style completion callbacks. Zero means success.
type ErrorCode int

// Ok reports whether the code indicates success.
func (c ErrorCode) Ok() bool { return c == 0 }

// String returns the decimal representation of the code.
func (c ErrorCode) String() string { return strconv.Itoa(int(c)) }

// SystemError is the failure a future reports when an error-code style
// completion delivered a non-zero code.
type SystemError struct {
	Code ErrorCode
}

// Error implements the error interface.
func (e *SystemError) Error() string {
	return fmt.Sprintf("scheduler: system error: code %d", e.Code)
}

// Is matches any *SystemError with the same code.
func (e *SystemError) Is(target error) bool {
	t, ok := target.(*SystemError)
	return ok && t.Code == e.Code
}

// PanicError wraps a value recovered from a panicking callable, letting
// the panic travel across a future as an ordinary failure.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("scheduler: callable panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type,
// enabling [errors.Is] and [errors.As] matching through the cause chain.
// Returns nil for non-error panic values.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
