// Package errs holds the error taxonomy shared by the curve, root finder, trade
// and pricing packages.
//
// Callers match on the sentinels with errors.Is; the concrete *Error carries the
// failing operation and a message naming the violated input.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed solver bounds, curve knots or trade terms.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRootNotFound is returned when the root finder cannot bracket a sign change.
	ErrRootNotFound = errors.New("root not found")
	// ErrCurveNotFound is returned when a named curve is missing from a bundle.
	ErrCurveNotFound = errors.New("curve not found")
)

// Error is a categorised failure of a named operation.
type Error struct {
	Op  string
	Err error
	Msg string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput builds an ErrInvalidInput failure for op.
func InvalidInput(op, format string, args ...any) error {
	return &Error{Op: op, Err: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// RootNotFound builds an ErrRootNotFound failure for op.
func RootNotFound(op, format string, args ...any) error {
	return &Error{Op: op, Err: ErrRootNotFound, Msg: fmt.Sprintf(format, args...)}
}

// CurveNotFound builds an ErrCurveNotFound failure for the named curve.
func CurveNotFound(op, name string) error {
	return &Error{Op: op, Err: ErrCurveNotFound, Msg: fmt.Sprintf("%q", name)}
}
