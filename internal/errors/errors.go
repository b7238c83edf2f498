package errors

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Base error types
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("timeout")
	ErrAPI              = errors.New("api error")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeAPI        ErrorType = "api"
)

// CodeHTTPRequestFailed is the error code reported for transport failures.
const CodeHTTPRequestFailed = "http_request_failed"

// HelperError is a structured error for licensing operations.
type HelperError struct {
	Type       ErrorType
	Op         string // Operation that failed (e.g., "activate", "pluginupdatecheck")
	Product    string // Product slug if applicable
	Err        error  // Underlying error
	StatusCode int    // HTTP status code if applicable
}

func (e *HelperError) Error() string {
	if e.Product != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Product, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *HelperError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *HelperError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrInvalidInput:
		return e.Type == ErrorTypeValidation
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection || e.Type == ErrorTypeTimeout
	case ErrAPI:
		return e.Type == ErrorTypeAPI
	}

	return errors.Is(e.Err, target)
}

// Code returns the remote-facing error code: the HTTP status for API errors,
// a transport code otherwise.
func (e *HelperError) Code() string {
	if e.Type == ErrorTypeAPI && e.StatusCode != 0 {
		return strconv.Itoa(e.StatusCode)
	}
	return CodeHTTPRequestFailed
}

// Message returns the user-facing message for the error.
func (e *HelperError) Message() string {
	if e.Type == ErrorTypeAPI && e.StatusCode != 0 {
		return "Error code: " + strconv.Itoa(e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Type)
}

// NewConnectionError classifies a transport failure, detecting timeouts.
func NewConnectionError(op string, err error) *HelperError {
	errorType := ErrorTypeConnection
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		errorType = ErrorTypeTimeout
	}
	return &HelperError{Type: errorType, Op: op, Err: err}
}

// NewAPIError wraps a non-200 response from the licensing server.
func NewAPIError(op string, statusCode int) *HelperError {
	return &HelperError{
		Type:       ErrorTypeAPI,
		Op:         op,
		Err:        fmt.Errorf("%w: unexpected status %d", ErrAPI, statusCode),
		StatusCode: statusCode,
	}
}

// NewValidationError reports invalid local input for a product.
func NewValidationError(op, product, msg string) *HelperError {
	return &HelperError{
		Type:    ErrorTypeValidation,
		Op:      op,
		Product: product,
		Err:     fmt.Errorf("%w: %s", ErrInvalidInput, msg),
	}
}

// NewNotFoundError reports an unknown product.
func NewNotFoundError(op, product string) *HelperError {
	return &HelperError{
		Type:    ErrorTypeNotFound,
		Op:      op,
		Product: product,
		Err:     ErrNotFound,
	}
}

// IsConnectionError reports whether err is a transport-level failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}
