package crawler

import "fmt"

// FetchError reports that a page could not be fetched or parsed.
// Network failures, malformed URLs, body read errors and parse errors all
// collapse into this one kind.
type FetchError struct {
	// URL is the page that failed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error returns the underlying message only, so callers can print
// "Error: <message>" without repeating the URL.
func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to fetch %s", e.URL)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
