package sharepoint

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// APIError represents a SharePoint REST error response.
// It unwraps to the matching domain error kind so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	URL        string

	// RetryAfter is the server-requested delay for 429 and 503 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sharepoint: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps the status code onto domain errors.
func (e *APIError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return []error{domain.ErrPermissionDenied}
	case e.StatusCode == http.StatusNotFound:
		return []error{domain.ErrNotFound}
	case e.StatusCode == http.StatusTooManyRequests:
		return []error{domain.ErrRateLimited, domain.ErrTransport}
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode >= 500:
		return []error{domain.ErrTransport}
	default:
		return nil
	}
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsRateLimited checks if the error indicates throttling by the platform.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsForbidden checks if the error indicates a forbidden resource.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}

// isThrottled reports a 429 rejection, which the platform issues before doing any work.
func isThrottled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
