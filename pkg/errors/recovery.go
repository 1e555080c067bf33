// Package errors provides error handling utilities for tabenc.
//
// This file contains the panic recovery helpers that convert unexpected
// panics, typically out-of-bounds access on caller-supplied matrices, into
// structured errors with debugging information.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is an error created from a recovered panic. It carries the
// original panic value and the stack trace at the time of the panic.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a PanicError for the given operation and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error assigned through err. It must be
// deferred with a pointer to the function's named error return:
//
//	func (e *BinaryTargetEncoder) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "BinaryTargetEncoder.Fit")
//	    // ... method implementation ...
//	    return nil
//	}
//
// When the function already set an error, the panic information wraps it.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}

	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn and converts any panic into an error.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
