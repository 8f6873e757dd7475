package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as a Scraper for single-page
// scrapes. It renders JavaScript, so it can read pages the other scrapers
// see as shells.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports implements Scraper.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches the main content of a URL via Firecrawl's scrape API.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("firecrawl: scrape not successful")
	}
	if len(strings.TrimSpace(resp.Data.Markdown)) < MinContentChars {
		return nil, eris.New("firecrawl: empty page")
	}

	url := resp.Data.URL
	if url == "" {
		url = targetURL
	}
	return &Result{
		Page: Page{
			URL:        url,
			Title:      resp.Data.Title,
			Markdown:   resp.Data.Markdown,
			StatusCode: resp.Data.StatusCode,
		},
		Source: "firecrawl",
	}, nil
}
