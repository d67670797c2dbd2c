package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError describes a failure reported by (or while reaching) a vendor
// backend. StatusCode 0 means the backend was never reached (network or
// client-side failure).
type APIError struct {
	Vendor     Vendor
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: model %s: HTTP %d: %s", e.Vendor, e.Model, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: model %s: %v", e.Vendor, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: model %s: %s", e.Vendor, e.Model, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// newAPIError wraps a raw vendor failure with vendor/model context.
func newAPIError(v Vendor, model string, status int, message string, err error) *APIError {
	return &APIError{Vendor: v, Model: model, StatusCode: status, Message: message, Err: err}
}

// IsAuth reports whether err is the vendor rejecting the credential.
func IsAuth(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsRateLimited reports whether err is a vendor rate-limit rejection.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests
}

// contextMarkers are message fragments vendors use for over-long prompts.
var contextMarkers = []string{
	"context window",
	"context length",
	"context_length",
	"prompt is too long",
	"maximum context",
	"too many tokens",
}

// IsContextTooLarge reports whether err indicates the prompt exceeded the
// model's context window.
func IsContextTooLarge(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusRequestEntityTooLarge {
		return true
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, marker := range contextMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is worth routing to another candidate
// model: rate limits, server errors, timeouts, and network failures.
func IsTransient(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.StatusCode == 0:
		return true
	case apiErr.StatusCode == http.StatusRequestTimeout:
		return true
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return true
	case apiErr.StatusCode >= 500:
		return true
	}
	return false
}
