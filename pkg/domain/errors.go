package domain

import (
	"errors"
	"fmt"
)

// ErrUnreachable is returned by a transport when the backend could not be reached
// (connection refused, timeout, malformed response).
var ErrUnreachable = errors.New("backend unreachable")

// ErrNotVerified is returned when an operation requires a verified phone number.
var ErrNotVerified = errors.New("this number has not been verified")

// ErrCodeNotFound is returned when no verification code was issued for a number.
var ErrCodeNotFound = errors.New("verification code not found")

// ErrPasswordNotSet is returned when a password check is made for a number without one.
var ErrPasswordNotSet = errors.New("password not set")

// ErrPastTime is returned when a delivery time resolves to a moment that is not in the future.
var ErrPastTime = errors.New("delivery time is in the past")

// ErrUnparseableTime is returned when a delivery time cannot be understood.
var ErrUnparseableTime = errors.New("delivery time could not be parsed")

// ErrInvalidRequest is returned by the service for malformed or out-of-policy requests.
var ErrInvalidRequest = errors.New("invalid request")

// Error types carried on the wire in the "type" field.
const (
	ErrorTypeAPI     = "api_error"
	ErrorTypeInvalid = "invalid_request"
)

// APIError is the rejection value of a transport call that reached the backend
// but came back with a non-success status.
type APIError struct {
	Status  int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Type, e.Status, e.Message)
}

// MessageOf extracts the user-facing message of err: the server-provided message
// for an *APIError, the error text otherwise.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
