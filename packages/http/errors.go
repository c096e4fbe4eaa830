package http

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyURL is returned when a request is made without a URL
	ErrEmptyURL = errors.New("url must not be empty")
	// ErrConflictingBody is returned when both Body and Form are set on a Config
	ErrConflictingBody = errors.New("body and form are mutually exclusive")
)

// ClientError is returned for every response whose status is outside 200-299.
type ClientError struct {
	StatusCode int
	Response   *Response
}

func (e *ClientError) Error() string {
	if e.Response != nil && e.Response.Status != "" {
		return fmt.Sprintf("http status %s", e.Response.Status)
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ParseError is returned when a successful response was expected to carry
// JSON but its body could not be decoded.
type ParseError struct {
	Response *Response
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON response body: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError wraps failures reported by the underlying HTTP transport
// (DNS, refused connections, resets, unreadable bodies).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a request does not complete before its deadline.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s %s: timed out after %s", e.Method, e.URL, e.Timeout)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ConfigError reports a request that could not be built from its Config.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid request config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err when it is a ClientError.
func StatusCode(err error) (int, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode, true
	}
	return 0, false
}
