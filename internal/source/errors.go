// Package source discovers and reads the drug registry spreadsheet.
package source

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkNotFound means the landing page has no spreadsheet link in the
	// expected table. The run should be aborted; the service stays up.
	ErrLinkNotFound = errors.New("spreadsheet link not found")

	// ErrParse means the downloaded payload is not a readable spreadsheet.
	ErrParse = errors.New("spreadsheet parse failed")
)

// FetchError reports a failure to retrieve the landing page.
// StatusCode is zero when the request never got a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch landing page %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch landing page %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DownloadError reports a failure to download the spreadsheet itself.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download spreadsheet %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download spreadsheet %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
