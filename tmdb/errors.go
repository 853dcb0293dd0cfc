package tmdb

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrLoginInProgress is returned when a login is started while another one is still running
	ErrLoginInProgress = errors.New("a login is already in progress")
)

// ErrNoSession indicates the session has no session id or user id yet
var ErrNoSession error = &ValidationError{Field: "session", Reason: "not logged in"}

// ErrorKind classifies the outcome of a call
type ErrorKind int

const (
	// KindNone means the call succeeded
	KindNone ErrorKind = iota
	// KindTransport covers connectivity failures, timeouts and cancellation
	KindTransport
	// KindHTTPStatus is a response outside the 2xx range
	KindHTTPStatus
	// KindDecode is a body that is not a JSON object
	KindDecode
	// KindAPI is a well-formed response carrying status_code
	KindAPI
	// KindValidation covers bad input and missing response keys
	KindValidation
	// KindUnknown is any other error
	KindUnknown
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	case KindAPI:
		return "api"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// TransportError is a failure to get a response at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a response whose status code is outside 200-299
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// DecodeError is a response body that could not be parsed
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError is an error reported by the movie database in the response body
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tmdb API error: status_code %d: %s", e.StatusCode, e.Message)
}

// ValidationError is bad caller input or a response missing an expected key
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Classify returns the kind of err
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		transportErr  *TransportError
		statusErr     *HTTPStatusError
		decodeErr     *DecodeError
		apiErr        *APIError
		validationErr *ValidationError
	)

	switch {
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &validationErr):
		return KindValidation
	default:
		return KindUnknown
	}
}

// Reason returns a human-readable description of err suitable for showing to a user.
// API errors are reported with the message the server sent.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var (
		transportErr  *TransportError
		statusErr     *HTTPStatusError
		decodeErr     *DecodeError
		apiErr        *APIError
		validationErr *ValidationError
	)

	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message == "" {
			return fmt.Sprintf("the movie database returned status code %d", apiErr.StatusCode)
		}
		return apiErr.Message
	case errors.As(err, &transportErr):
		if errors.Is(err, context.Canceled) {
			return "request cancelled"
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "request timed out"
		}
		return fmt.Sprintf("network error: %v", transportErr.Err)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("server returned status %d", statusErr.StatusCode)
	case errors.As(err, &decodeErr):
		return "could not read the server response"
	case errors.As(err, &validationErr):
		return validationErr.Error()
	default:
		return err.Error()
	}
}
