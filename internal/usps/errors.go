package usps

import (
	"fmt"
	"strings"
)

// Error codes mirror domain error codes to avoid circular imports.
const (
	codeInvalid     = "invalid"
	codeInternal    = "internal"
	codeUnavailable = "unavailable"
)

// ServiceError is a failure reported by the USPS or met while talking to it.
// Number, Source and Description come from an <Error> element; StatusCode is
// set for non-2xx HTTP responses; Err carries a transport or decoding failure.
type ServiceError struct {
	Number      string
	Source      string
	Description string
	StatusCode  int
	Err         error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	b.WriteString("usps")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Number != "" {
		fmt.Fprintf(&b, ": error %s", e.Number)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, ": %s", e.Description)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ServiceError) ErrorCode() string {
	return codeUnavailable
}

// ErrorMessage returns the user-facing message.
func (e *ServiceError) ErrorMessage() string {
	if e.Description != "" {
		return e.Description
	}
	return "Address service is unavailable"
}

// AddressError is an <Error> the USPS reported for one submitted address,
// typically "Address Not Found." or "Invalid City.". The rest of the request
// may still have succeeded.
type AddressError struct {
	ID          int
	Number      string
	Source      string
	Description string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("usps: address %d: error %s: %s", e.ID, e.Number, e.Description)
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *AddressError) ErrorCode() string {
	return codeInvalid
}

// ErrorMessage returns the user-facing message.
func (e *AddressError) ErrorMessage() string {
	if e.Description != "" {
		return e.Description
	}
	return "The address was rejected by the USPS"
}

// ClientError is a misuse of the client detected before any request is made.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string { return e.Message }

// ErrorCode returns the error code for HTTP status mapping.
func (e *ClientError) ErrorCode() string { return e.Code }

// ErrorMessage returns the user-facing message.
func (e *ClientError) ErrorMessage() string { return e.Message }

var (
	// ErrMissingUserID is returned when the Web Tools user ID is missing.
	ErrMissingUserID = &ClientError{Code: codeInternal, Message: "USPS user ID is required"}

	// ErrNoAddresses is returned when Resolve is called without addresses.
	ErrNoAddresses = &ClientError{Code: codeInvalid, Message: "At least one address is required"}

	// ErrTooManyAddresses is returned when more addresses are submitted than
	// one request can carry.
	ErrTooManyAddresses = &ClientError{Code: codeInvalid, Message: fmt.Sprintf("At most %d addresses can be standardized at once", MaxAddresses)}
)
