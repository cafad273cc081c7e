// Package errors provides centralized error definitions and error handling
// utilities for sparcli. It defines the sentinel errors raised by the
// capture, series and controller layers, typed errors that carry the
// context of a failure, and small classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - CaptureError: errors raised while redirecting or draining a standard stream
//   - ControllerError: protocol violations inside the controller loop
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid configuration or constructor arguments
//
// # Usage
//
//	err := errors.NewCaptureError("start", 1, errors.ErrAlreadyCapturing)
//	if errors.Is(err, errors.ErrAlreadyCapturing) { ... }
//
//	var capErr *errors.CaptureError
//	if errors.As(err, &capErr) { fmt.Println(capErr.FD) }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Capture-related sentinel errors
var (
	// ErrAlreadyCapturing is returned by Start on a capture that is not idle.
	ErrAlreadyCapturing = New("already capturing")
	// ErrNotCapturing is returned by Close on an idle capture.
	ErrNotCapturing = New("not capturing")
	// ErrUnknownCaptureMethod indicates a capture method name outside the supported set.
	ErrUnknownCaptureMethod = New("unknown capture method")
)

// Series-related sentinel errors
var (
	// ErrInvalidSeriesSize indicates a series capacity that is not a positive multiple of 2.
	ErrInvalidSeriesSize = New("series size must be a positive multiple of 2")
	// ErrOddLength indicates that Compact was given an odd number of values.
	ErrOddLength = New("cannot compact an odd number of values")
)

// Controller-related sentinel errors
var (
	// ErrUnknownEvent indicates that the controller dequeued a value that is
	// not part of its event protocol.
	ErrUnknownEvent = New("unknown event")
	// ErrControllerStarted indicates a second Start on a running controller.
	ErrControllerStarted = New("controller already started")
	// ErrControllerStopped indicates use of a controller after it stopped.
	ErrControllerStopped = New("controller stopped")
	// ErrProducerClosed indicates a Record on a producer that already closed.
	ErrProducerClosed = New("producer closed")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// SparcliError is implemented by every typed error in this package.
type SparcliError interface {
	error
	Unwrap() error
	Is(target error) bool
}

type baseError struct {
	message string
	cause   error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.message == "" {
		if e.cause != nil {
			return fmt.Sprintf("%s: %v", prefix, e.cause)
		}
		return prefix
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// CaptureError represents a failure while intercepting a standard stream.
//
// Example:
//
//	err := errors.NewCaptureError("start", 1, errors.ErrAlreadyCapturing)
//	fmt.Println(err) // "capture error [op=start, fd=1]: already capturing"
type CaptureError struct {
	baseError
	Op string
	FD int
}

// NewCaptureError creates a new CaptureError for the given operation and descriptor.
func NewCaptureError(op string, fd int, cause error) *CaptureError {
	return &CaptureError{
		baseError: baseError{cause: cause},
		Op:        op,
		FD:        fd,
	}
}

// WithMessage adds a human readable description of the failing step.
func (e *CaptureError) WithMessage(msg string) *CaptureError {
	e.message = msg
	return e
}

// Error returns the formatted error message.
func (e *CaptureError) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	parts = append(parts, fmt.Sprintf("fd=%d", e.FD))
	return e.format("capture error", parts)
}

// Is checks if this error matches the target.
func (e *CaptureError) Is(target error) bool {
	if _, ok := target.(*CaptureError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ControllerError represents a protocol violation inside the controller loop.
type ControllerError struct {
	baseError
	Event string
}

// NewControllerError creates a new ControllerError.
func NewControllerError(message string, cause error) *ControllerError {
	return &ControllerError{baseError: baseError{message: message, cause: cause}}
}

// WithEvent records a description of the offending event.
func (e *ControllerError) WithEvent(desc string) *ControllerError {
	e.Event = desc
	return e
}

// Error returns the formatted error message.
func (e *ControllerError) Error() string {
	var parts []string
	if e.Event != "" {
		parts = append(parts, fmt.Sprintf("event=%s", e.Event))
	}
	return e.format("controller error", parts)
}

// Is checks if this error matches the target.
func (e *ControllerError) Is(target error) bool {
	if _, ok := target.(*ControllerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("must be a multiple of 2")
//	err = err.WithField("display.series_size").WithValue(7)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError: baseError{message: message}}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsCaptureError reports whether err is or wraps a CaptureError.
func IsCaptureError(err error) bool {
	var capErr *CaptureError
	return err != nil && As(err, &capErr)
}

// IsFatal reports whether err should terminate the controller loop rather
// than being logged. Protocol violations are fatal; everything else raised
// while drawing a frame is not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ctrlErr *ControllerError
	return As(err, &ctrlErr) || Is(err, ErrUnknownEvent)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
