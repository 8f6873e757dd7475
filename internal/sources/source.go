// Package sources lists candidate documents from configured ingestion
// sources: SEC EDGAR full-text search, RSS and Atom feeds, HTML press
// release listings and site-restricted web search.
package sources

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/pkg/jina"
)

// DefaultLimit caps documents per source when the configuration sets none.
const DefaultLimit = 20

// Document types attached to SourceDocument.Type.
const (
	TypeFiling       = "sec-filing"
	TypeNews         = "news"
	TypePressRelease = "press-release"
	TypeWeb          = "web"
)

// Fetcher lists documents from one source. Content is left empty unless
// the source delivers the full text.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]model.SourceDocument, error)
}

// Deps are the clients fetchers are built from.
type Deps struct {
	HTTP fetcher.Fetcher
	Jina jina.Client
}

// New builds the fetcher for a source configuration.
func New(cfg config.SourceConfig, deps Deps) (Fetcher, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	switch cfg.Kind {
	case config.SourceEdgar:
		if deps.HTTP == nil {
			return nil, eris.Errorf("sources: %s: edgar needs an http fetcher", cfg.Name)
		}
		return NewEdgarFetcher(cfg, deps.HTTP), nil
	case config.SourceRSS:
		if deps.HTTP == nil {
			return nil, eris.Errorf("sources: %s: rss needs an http fetcher", cfg.Name)
		}
		return NewRSSFetcher(cfg, deps.HTTP), nil
	case config.SourceListing:
		if deps.HTTP == nil {
			return nil, eris.Errorf("sources: %s: listing needs an http fetcher", cfg.Name)
		}
		return NewListingFetcher(cfg, deps.HTTP), nil
	case config.SourceSearch:
		if deps.Jina == nil {
			return nil, eris.Errorf("sources: %s: search needs a jina client", cfg.Name)
		}
		return NewSearchFetcher(cfg, deps.Jina), nil
	default:
		return nil, eris.Errorf("sources: %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// Build creates fetchers for every configured source, in order.
func Build(cfgs []config.SourceConfig, deps Deps) ([]Fetcher, error) {
	out := make([]Fetcher, 0, len(cfgs))
	for _, c := range cfgs {
		f, err := New(c, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
}

// normalizeDate renders a feed or page date as YYYY-MM-DD. Unparseable
// dates are returned trimmed but otherwise unchanged.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return s
}

// collapse trims s and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
