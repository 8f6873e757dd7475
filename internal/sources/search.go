package sources

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/pkg/jina"
)

// SearchFetcher lists results of a web search, optionally restricted to
// one site.
type SearchFetcher struct {
	name  string
	query string
	site  string
	limit int
	jina  jina.Client
}

// NewSearchFetcher creates a SearchFetcher.
func NewSearchFetcher(cfg config.SourceConfig, client jina.Client) *SearchFetcher {
	return &SearchFetcher{name: cfg.Name, query: cfg.Query, site: cfg.Site, limit: cfg.Limit, jina: client}
}

// Name implements Fetcher.
func (s *SearchFetcher) Name() string { return s.name }

// Fetch implements Fetcher.
func (s *SearchFetcher) Fetch(ctx context.Context) ([]model.SourceDocument, error) {
	opts := []jina.SearchOption{jina.WithLimit(s.limit)}
	if s.site != "" {
		opts = append(opts, jina.WithSiteFilter(s.site))
	}
	resp, err := s.jina.Search(ctx, s.query, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "search: %q", s.query)
	}

	seen := make(map[string]bool)
	var docs []model.SourceDocument
	for _, r := range resp.Data {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		doc := model.SourceDocument{
			URL:        r.URL,
			Title:      collapse(r.Title),
			Type:       TypeWeb,
			Date:       normalizeDate(r.Date),
			SourceName: s.name,
		}
		if c := strings.TrimSpace(r.Content); len(c) >= minInlineContent {
			doc.Content = c
		}
		docs = append(docs, doc)
		if len(docs) >= s.limit {
			break
		}
	}
	return docs, nil
}
