// Package scrape fetches the full text of a single document URL through a
// chain of readers, falling back when a page is blocked or empty.
package scrape

import (
	"context"
)

// Page is the readable content of a fetched URL.
type Page struct {
	URL        string
	Title      string
	Markdown   string
	StatusCode int
}

// Result holds a scraped page with the scraper that produced it.
type Result struct {
	Page   Page
	Source string // e.g. "jina", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}

// MinContentChars is the shortest page body treated as real content.
const MinContentChars = 200
