package client

import (
	"errors"
	"fmt"
)

// ErrTooManyRedirects is returned when a redirect chain exhausts the
// redirect budget.
var ErrTooManyRedirects = errors.New("too many redirects")

// NetworkError wraps transport-level failures: connection refused or reset,
// truncated bodies, decompression failures. Network errors are surfaced to
// the caller immediately and never retried.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s of %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func netErr(op, url string, err error) error {
	return &NetworkError{Op: op, URL: url, Err: err}
}

// BadStatusError reports a non-redirect error status (4xx/5xx). It carries
// the error-page Document so a host can render it instead of a blank page.
type BadStatusError struct {
	Status int
	URL    string
	Doc    *Document
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("server returned status %d for %s", e.Status, e.URL)
}
