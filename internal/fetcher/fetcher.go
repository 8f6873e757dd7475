// Package fetcher downloads source feeds and indexes with per-host rate
// limits and retries, and decodes the XML and JSON payloads they return.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The caller
	// closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
