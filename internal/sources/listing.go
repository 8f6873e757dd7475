package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/model"
)

// ListingFetcher lists links from an HTML press release or news index page
// using CSS selectors.
type ListingFetcher struct {
	name  string
	url   string
	limit int
	http  fetcher.Fetcher

	itemSel  string
	linkSel  string
	titleSel string
	dateSel  string
}

// NewListingFetcher creates a ListingFetcher. An empty link selector
// selects the first anchor in each item.
func NewListingFetcher(cfg config.SourceConfig, f fetcher.Fetcher) *ListingFetcher {
	linkSel := cfg.LinkSelector
	if linkSel == "" {
		linkSel = "a"
	}
	return &ListingFetcher{
		name:     cfg.Name,
		url:      cfg.URL,
		limit:    cfg.Limit,
		http:     f,
		itemSel:  cfg.ItemSelector,
		linkSel:  linkSel,
		titleSel: cfg.TitleSelector,
		dateSel:  cfg.DateSelector,
	}
}

// Name implements Fetcher.
func (l *ListingFetcher) Name() string { return l.name }

// Fetch implements Fetcher.
func (l *ListingFetcher) Fetch(ctx context.Context) ([]model.SourceDocument, error) {
	base, err := url.Parse(l.url)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: parse url %q", l.url)
	}

	body, err := l.http.Download(ctx, l.url)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: fetch %s", l.url)
	}
	defer body.Close() //nolint:errcheck

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: parse html from %s", l.url)
	}

	seen := make(map[string]bool)
	var docs []model.SourceDocument
	doc.Find(l.itemSel).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		link := item
		if !item.Is(l.linkSel) {
			link = item.Find(l.linkSel).First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			zap.L().Debug("listing: bad href", zap.String("source", l.name), zap.String("href", href))
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		u := abs.String()
		if seen[u] {
			return true
		}
		seen[u] = true

		title := link.Text()
		if l.titleSel != "" {
			if t := item.Find(l.titleSel).First(); t.Length() > 0 {
				title = t.Text()
			}
		}
		date := ""
		if l.dateSel != "" {
			d := item.Find(l.dateSel).First()
			if dt, ok := d.Attr("datetime"); ok {
				date = dt
			} else {
				date = d.Text()
			}
		}

		docs = append(docs, model.SourceDocument{
			URL:        u,
			Title:      collapse(title),
			Type:       TypePressRelease,
			Date:       normalizeDate(date),
			SourceName: l.name,
		})
		return len(docs) < l.limit
	})
	return docs, nil
}
