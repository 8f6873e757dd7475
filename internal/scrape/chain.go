package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	filter   *URLFilter
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in order; a nil filter
// selects the default exclusions.
func NewChain(filter *URLFilter, scrapers ...Scraper) *Chain {
	if filter == nil {
		filter = NewURLFilter(nil, nil)
	}
	return &Chain{filter: filter, scrapers: scrapers}
}

// Scrape tries each supporting scraper in order for a single URL.
// Returns the first successful result, or an error if all fail.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if c.filter.IsExcluded(targetURL) {
		return nil, eris.Errorf("scrape: url excluded: %s", targetURL)
	}

	var lastErr error
	for _, s := range c.scrapers {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape: context done")
		}
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			if result.Page.URL == "" {
				result.Page.URL = targetURL
			}
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}
