package apierror

import (
	"errors"
	"net/http"
	"strings"
)

// Inspector provides methods for analyzing CartWave platform API errors.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication or authorization failure.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the error represents a resource not found error.
	IsNotFoundError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool
}

// StatusCoder is implemented by errors that carry an HTTP status code.
// The platform client's response errors satisfy this interface.
type StatusCoder interface {
	HTTPStatus() int
}

// PlatformErrorInspector implements the Inspector interface for CartWave API errors.
// It prefers typed status codes found in the error chain and falls back to
// message matching for errors raised below the HTTP layer.
type PlatformErrorInspector struct{}

// NewInspector creates a new PlatformErrorInspector.
func NewInspector() Inspector {
	return &PlatformErrorInspector{}
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *PlatformErrorInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "invalid_client") ||
		strings.Contains(errStr, "invalid_scope") ||
		strings.Contains(errStr, "authentication")
}

// IsNotFoundError checks if the error is a not found error.
func (i *PlatformErrorInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusNotFound
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *PlatformErrorInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "unexpected eof") ||
		strings.Contains(errStr, "network is unreachable")
}

// statusOf extracts an HTTP status code from the error chain, if present.
func statusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus(), true
	}
	return 0, false
}
