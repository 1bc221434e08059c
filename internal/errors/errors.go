// Package errors provides custom error types for the chat client.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/diogo/chatpanel/internal/models"
)

// Sentinel errors for common cases
var (
	ErrValidation  = errors.New("invalid message")
	ErrNetwork     = errors.New("network error")
	ErrTimeout     = errors.New("request timed out")
	ErrServer      = errors.New("server error")
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError is raised locally before any request is made
type ValidationError struct {
	Message string
	Length  int
	Max     int
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is allows comparison with sentinel errors
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewEmptyMessageError creates a ValidationError for blank input
func NewEmptyMessageError() *ValidationError {
	return &ValidationError{Message: models.TextEmpty}
}

// NewMaxLengthError creates a ValidationError for input over max characters
func NewMaxLengthError(length, max int) *ValidationError {
	return &ValidationError{Message: models.TextMaxLength, Length: length, Max: max}
}

// NetworkError represents a transport failure
type NetworkError struct {
	Operation string
	Endpoint  string
	Cause     error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("network error during %s", e.Operation)
	if e.Endpoint != "" {
		msg += " at " + e.Endpoint
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	_, ok := target.(*NetworkError)
	return ok
}

// NewNetworkErrorWithEndpoint creates a new NetworkError
func NewNetworkErrorWithEndpoint(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Cause: cause}
}

// TimeoutError represents a request that exceeded its deadline
type TimeoutError struct {
	Endpoint string
	Cause    error
}

func (e *TimeoutError) Error() string {
	if e.Endpoint == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Endpoint)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors. A timeout is also a network error.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTimeout || target == ErrNetwork {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(endpoint string, cause error) *TimeoutError {
	return &TimeoutError{Endpoint: endpoint, Cause: cause}
}

// ServerError represents a failed response from the chat endpoint.
// Message holds the backend's error text when it sent one.
type ServerError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no error detail"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("server error [%d] at %s: %s", e.StatusCode, e.Endpoint, msg)
	}
	return fmt.Sprintf("server error at %s: %s", e.Endpoint, msg)
}

// Is allows comparison with sentinel errors
func (e *ServerError) Is(target error) bool {
	if target == ErrServer {
		return true
	}
	_, ok := target.(*ServerError)
	return ok
}

// NewServerError creates a new ServerError
func NewServerError(statusCode int, endpoint, message string) *ServerError {
	return &ServerError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// RateLimitError is returned for HTTP 429. It is never retried.
type RateLimitError struct {
	Endpoint string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited [%d] at %s", http.StatusTooManyRequests, e.Endpoint)
}

// Is allows comparison with sentinel errors
func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimited {
		return true
	}
	_, ok := target.(*RateLimitError)
	return ok
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(endpoint string) *RateLimitError {
	return &RateLimitError{Endpoint: endpoint}
}

// IsValidationError reports whether err was raised by local validation
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetworkError reports whether err is a transport failure, timeouts included
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsTimeoutError reports whether err is a request timeout
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsServerError reports whether err is a failed server response
func IsServerError(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsRateLimitError reports whether err is an HTTP 429
func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// GetHTTPStatus extracts the HTTP status code carried by err, or 0
func GetHTTPStatus(err error) int {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}
	if IsRateLimitError(err) {
		return http.StatusTooManyRequests
	}
	return 0
}

// IsRetryable reports whether a failed attempt may be repeated.
// Rate limits, validation failures and caller cancellation are final.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsRateLimitError(err), IsValidationError(err):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// UserMessage returns the text shown inline in the message panel for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var serverErr *ServerError
	switch {
	case IsRateLimitError(err):
		return models.TextRateLimit
	case IsTimeoutError(err):
		return models.TextTimeout
	case IsNetworkError(err):
		return models.TextNetworkError
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return models.TextServerError
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return models.TextServerError
}
