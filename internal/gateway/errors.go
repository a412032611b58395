// Package gateway is a thin HTTP contract over the remote document-store's
// API: listing drives and folder children, resolving a batch of items to
// download URLs, and streaming file content. Retry, backoff, and error
// classification live here so the sync engine never touches raw HTTP.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for classifying gateway failures. Use errors.Is to check.
var (
	ErrToken      = errors.New("gateway: could not obtain bearer token")
	ErrTransport  = errors.New("gateway: transport error")
	ErrTimeout    = errors.New("gateway: request timed out")
	ErrBadRequest = errors.New("gateway: bad request")
	ErrForbidden  = errors.New("gateway: forbidden")
	ErrNotFound   = errors.New("gateway: not found")
	ErrThrottled  = errors.New("gateway: throttled")
	ErrServer     = errors.New("gateway: server error")
)

// HTTPError wraps a sentinel error with the HTTP status code and response
// body for debugging, in the style of the reference client's GraphError.
type HTTPError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("gateway: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("gateway: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// BatchHTTPError describes a non-200 status from the batch endpoint itself
// (not a sub-request). BatchResolve does not return it: such a status is
// logged and yields an empty outcome map.
type BatchHTTPError struct {
	Status int
}

func (e *BatchHTTPError) Error() string {
	return fmt.Sprintf("gateway: batch request failed with status %d", e.Status)
}

// DownloadHTTPError is returned when a content stream answers with neither
// 200 nor 206.
type DownloadHTTPError struct {
	Status int
}

func (e *DownloadHTTPError) Error() string {
	return fmt.Sprintf("gateway: download failed with status %d", e.Status)
}

// classifyStatus maps an HTTP status code to a sentinel error. Returns nil
// for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServer
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
