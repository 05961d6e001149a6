package entity

import (
	"errors"
	"fmt"
)

// Fetch error classes. Match them with errors.Is.
var (
	ErrNetwork      = errors.New("network error")
	ErrHTTPStatus   = errors.New("unexpected http status")
	ErrBodyTooLarge = errors.New("body too large")
)

// FetchResult is what a fetcher returns for a successfully retrieved page.
// URL is the final location after redirects and is the base for Links, which
// holds the raw href values in document order, unresolved.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Links       []string
}

// FetchError classifies a failed retrieval.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error

	kind error
}

// NewNetworkError wraps a transport level failure.
func NewNetworkError(url string, err error) *FetchError {
	return &FetchError{URL: url, Err: err, kind: ErrNetwork}
}

// NewHTTPStatusError reports a non-2xx response.
func NewHTTPStatusError(url string, code int) *FetchError {
	return &FetchError{URL: url, StatusCode: code, kind: ErrHTTPStatus}
}

// NewBodyTooLargeError reports a body exceeding the fetcher's size cap.
func NewBodyTooLargeError(url string, limit int64) *FetchError {
	return &FetchError{URL: url, Err: fmt.Errorf("exceeds %d bytes", limit), kind: ErrBodyTooLarge}
}

func (e *FetchError) Error() string {
	if errors.Is(e.kind, ErrHTTPStatus) {
		return fmt.Sprintf("fetch %s: %v %d", e.URL, e.kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the class of this error.
func (e *FetchError) Is(target error) bool {
	return target == e.kind
}

// Kind returns a short label for metrics.
func (e *FetchError) Kind() string {
	switch e.kind {
	case ErrHTTPStatus:
		return "http_status"
	case ErrBodyTooLarge:
		return "too_large"
	default:
		return "network"
	}
}
