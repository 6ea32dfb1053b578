package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is implemented by errors that carry their own status code.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors, matched with errors.Is.
var (
	ErrBadRequest                  = errors.New("bad request")
	ErrMethodNotAllowed            = errors.New("method not allowed")
	ErrPayloadTooLarge             = errors.New("payload too large")
	ErrServerMisconfigured         = errors.New("server misconfigured")
	ErrUpstream                    = errors.New("upstream error")
	ErrMalformedStructuredResponse = errors.New("malformed structured response")
	ErrRateLimited                 = errors.New("rate limited")
	ErrSecondaryEffect             = errors.New("secondary effect failed")
)

// ValidationError describes invalid caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) StatusCode() int      { return http.StatusBadRequest }
func (e *ValidationError) Is(target error) bool { return target == ErrBadRequest }

// UpstreamError is a non-success or unreachable response from the generative
// service. Status is zero when no HTTP response was received.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("upstream status %d: %v", e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("upstream status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("upstream unreachable: %v", e.Err)
	default:
		return "upstream error"
	}
}

func (e *UpstreamError) Unwrap() error        { return e.Err }
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// StatusCode is always a 500-class code for callers of the relay.
func (e *UpstreamError) StatusCode() int { return http.StatusInternalServerError }

// Summary is the caller-facing description; the full body stays in the logs.
func (e *UpstreamError) Summary() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return "upstream unreachable"
}

// Malformed wraps a structured-output violation.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedStructuredResponse, fmt.Sprintf(format, args...))
}

// StatusOf maps an error to the HTTP status the relay answers with.
func StatusOf(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
