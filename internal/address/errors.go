package address

import "fmt"

// Error codes mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.
const (
	codeInvalid  = "invalid"
	codeInternal = "internal"
	codeNotImpl  = "not_implemented"
)

// UnknownFieldError is returned when a field name is neither a field nor an alias.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("address: unknown field %q", e.Field)
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *UnknownFieldError) ErrorCode() string { return codeInvalid }

// ErrorMessage returns the user-facing message.
func (e *UnknownFieldError) ErrorMessage() string {
	return fmt.Sprintf("Unknown address field %q", e.Field)
}

// TypeMismatchError is returned when a value is not of the expected type:
// Replace given something other than an Address, or a field given a value
// that cannot be read as text.
type TypeMismatchError struct {
	Field string
	Got   string
}

func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("address: expected an address, got %s", e.Got)
	}
	return fmt.Sprintf("address: field %q cannot hold a %s", e.Field, e.Got)
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *TypeMismatchError) ErrorCode() string { return codeInvalid }

// ErrorMessage returns the user-facing message.
func (e *TypeMismatchError) ErrorMessage() string {
	if e.Field == "" {
		return "Expected an address"
	}
	return fmt.Sprintf("Invalid value for address field %q", e.Field)
}

// Error is a package error with a code and message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorCode returns the error code for HTTP status mapping.
func (e *Error) ErrorCode() string { return e.Code }

// ErrorMessage returns the user-facing message.
func (e *Error) ErrorMessage() string { return e.Message }

var (
	// ErrNotImplemented is returned by Deliverable.
	ErrNotImplemented = &Error{Code: codeNotImpl, Message: "Deliverability check not implemented"}

	// ErrMissingSlot is returned when a resolver result has no entry for a
	// submitted address.
	ErrMissingSlot = &Error{Code: codeInternal, Message: "Standardization result is missing a submitted address"}

	// ErrResultMismatch is returned when a result is built from slices of
	// different lengths.
	ErrResultMismatch = &Error{Code: codeInternal, Message: "Standardization result does not match the submitted addresses"}
)
