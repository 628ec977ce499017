// Package errors provides structured error types for the Scorebreak planner.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures, rejected before any planning work
//   - CONFIG_CONFLICT: Contradictory editorial constraints
//   - INFEASIBLE: No segmentation satisfies every minimum width
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidStack, "stack %d: min exceeds ideal", i)
//	if errors.Is(err, errors.ErrCodeInvalidStack) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "load stacks from %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidStack  Code = "INVALID_STACK"
	ErrCodeInvalidPolicy Code = "INVALID_POLICY"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidRange  Code = "INVALID_RANGE"

	// Editorial constraint conflicts, detected before planning runs
	ErrCodeConfigConflict Code = "CONFIG_CONFLICT"

	// No break configuration fits every stack's minimum width
	ErrCodeInfeasible Code = "INFEASIBLE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// InfeasibleError reports that no system or page segmentation exists that
// fits the cited stack's minimum width within any offered capacity.
type InfeasibleError struct {
	// StackIndex is the first stack whose minimum width exceeds every
	// capacity the policy offered for it.
	StackIndex int
}

// Error implements the error interface.
func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("infeasible: stack %d: minimum width exceeds every offered capacity", e.StackIndex)
}

// Code returns the error code for this error type.
func (e *InfeasibleError) Code() Code {
	return ErrCodeInfeasible
}
