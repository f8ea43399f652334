// Package fetcher retrieves ads.txt and sellers.json documents over HTTP.
package fetcher

import (
	"context"
	"fmt"
)

// Response is the outcome of a completed HTTP exchange. A non-2xx status is
// reported through OK and StatusText rather than as an error, so callers can
// tell it apart from a connection-level failure.
type Response struct {
	URL        string
	OK         bool
	StatusCode int
	StatusText string

	// Body holds the UTF-8 text of a successful FetchText.
	Body string
	// Value holds the decoded document of a successful FetchJSON.
	Value any
}

// Fetcher defines the transport used by the scanner.
type Fetcher interface {
	// FetchText retrieves the URL as text. Errors are transport failures.
	FetchText(ctx context.Context, url string) (*Response, error)

	// FetchJSON retrieves the URL and decodes a successful body as JSON.
	// A body that is not valid JSON yields a *DecodeError.
	FetchJSON(ctx context.Context, url string) (*Response, error)
}

// DecodeError reports a response body that could not be decoded as JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode json from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
