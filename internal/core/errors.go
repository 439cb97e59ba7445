package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies the outcome of a failed request attempt. The kinds are
// mutually exclusive for a single attempt.
type ErrorKind int

const (
	// KindAddress means the target address could not be parsed. Nothing was sent.
	KindAddress ErrorKind = iota + 1
	// KindTransport covers connection, TLS and timeout failures.
	KindTransport
	// KindUnsuccessfulResponse means the server answered with a non-success status.
	KindUnsuccessfulResponse
	// KindRateLimited is a local admission rejection (fail-fast policy only).
	KindRateLimited
)

// String returns a stable, lowercase name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindTransport:
		return "transport"
	case KindUnsuccessfulResponse:
		return "unsuccessful_response"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// RequestError is the single error type callers observe for a request attempt.
type RequestError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	switch e.Kind {
	case KindAddress:
		msg = "address error"
	case KindTransport:
		msg = "request error"
	case KindUnsuccessfulResponse:
		msg = fmt.Sprintf("unsuccessful request: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case KindRateLimited:
		msg = fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Millisecond))
	default:
		msg = "request failed"
	}

	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the caller may reasonably retry. Status failures are
// left to the caller except for 429 and 5xx.
func (e *RequestError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTransport, KindRateLimited:
		return true
	case KindUnsuccessfulResponse:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// NewAddressError reports a malformed target address.
func NewAddressError(url string, err error) *RequestError {
	return &RequestError{URL: url, Kind: KindAddress, Err: err}
}

// NewTransportError reports a connection, TLS or timeout failure.
func NewTransportError(url string, err error) *RequestError {
	return &RequestError{URL: url, Kind: KindTransport, Err: err}
}

// NewUnsuccessfulResponse reports a non-success status returned by the server.
func NewUnsuccessfulResponse(url string, status int) *RequestError {
	return &RequestError{URL: url, Kind: KindUnsuccessfulResponse, StatusCode: status}
}

// NewRateLimited reports a local admission rejection.
func NewRateLimited(url string, retryAfter time.Duration) *RequestError {
	return &RequestError{URL: url, Kind: KindRateLimited, RetryAfter: retryAfter}
}

// AsRequestError unwraps err into a *RequestError.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr != nil {
		return reqErr, true
	}
	return nil, false
}

// IsRateLimited reports whether err is a local admission rejection and returns
// the advertised wait.
func IsRateLimited(err error) (time.Duration, bool) {
	reqErr, ok := AsRequestError(err)
	if !ok || reqErr.Kind != KindRateLimited {
		return 0, false
	}
	return reqErr.RetryAfter, true
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	reqErr, ok := AsRequestError(err)
	if !ok || reqErr.Kind != KindUnsuccessfulResponse {
		return 0
	}
	return reqErr.StatusCode
}
