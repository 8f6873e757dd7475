// Package search runs diversified web searches and turns the scraped hits
// into candidate documents for project extraction.
package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/pkg/firecrawl"
	"github.com/sells-group/mining-intel/pkg/jina"
)

// Page is one scraped search hit.
type Page struct {
	URL     string
	Title   string
	Content string
}

// Options tune a single search call.
type Options struct {
	ResultLimit   int
	Timeout       time.Duration
	ContentFormat string
}

// Searcher runs a web search and returns scraped pages.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) ([]Page, error)
	Name() string
}

// FirecrawlSearcher searches through Firecrawl's /search endpoint with
// per-hit scraping.
type FirecrawlSearcher struct {
	client firecrawl.Client
}

// NewFirecrawlSearcher creates a Searcher backed by Firecrawl.
func NewFirecrawlSearcher(client firecrawl.Client) *FirecrawlSearcher {
	return &FirecrawlSearcher{client: client}
}

// Name implements Searcher.
func (s *FirecrawlSearcher) Name() string { return "firecrawl" }

// Search implements Searcher.
func (s *FirecrawlSearcher) Search(ctx context.Context, query string, opts Options) ([]Page, error) {
	format := opts.ContentFormat
	if format == "" {
		format = "markdown"
	}
	resp, err := s.client.Search(ctx, firecrawl.SearchRequest{
		Query:         query,
		Limit:         opts.ResultLimit,
		Timeout:       int(opts.Timeout.Milliseconds()),
		ScrapeOptions: &firecrawl.ScrapeOptions{Formats: []string{format}},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.Errorf("search: firecrawl reported failure for %q", query)
	}

	pages := make([]Page, 0, len(resp.Data))
	for _, r := range resp.Data {
		content := r.Markdown
		if content == "" {
			content = r.Description
		}
		pages = append(pages, Page{URL: r.URL, Title: r.Title, Content: content})
	}
	return pages, nil
}

// JinaSearcher searches through Jina Search, which returns page content
// inline.
type JinaSearcher struct {
	client jina.Client
}

// NewJinaSearcher creates a Searcher backed by Jina.
func NewJinaSearcher(client jina.Client) *JinaSearcher {
	return &JinaSearcher{client: client}
}

// Name implements Searcher.
func (s *JinaSearcher) Name() string { return "jina" }

// Search implements Searcher. Timeout is enforced by the caller's context.
func (s *JinaSearcher) Search(ctx context.Context, query string, opts Options) ([]Page, error) {
	var sopts []jina.SearchOption
	if opts.ResultLimit > 0 {
		sopts = append(sopts, jina.WithLimit(opts.ResultLimit))
	}
	resp, err := s.client.Search(ctx, query, sopts...)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(resp.Data))
	for _, r := range resp.Data {
		content := r.Content
		if content == "" {
			content = r.Description
		}
		pages = append(pages, Page{URL: r.URL, Title: r.Title, Content: content})
	}
	return pages, nil
}
