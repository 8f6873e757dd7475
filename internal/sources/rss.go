package sources

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/model"
)

// minInlineContent is the shortest embedded article body kept as document
// content. Shorter bodies are teasers and the page is scraped instead.
const minInlineContent = 500

// RSSFetcher lists items from an RSS 2.0 or Atom feed.
type RSSFetcher struct {
	name  string
	url   string
	limit int
	http  fetcher.Fetcher
}

// NewRSSFetcher creates an RSSFetcher.
func NewRSSFetcher(cfg config.SourceConfig, f fetcher.Fetcher) *RSSFetcher {
	return &RSSFetcher{name: cfg.Name, url: cfg.URL, limit: cfg.Limit, http: f}
}

// Name implements Fetcher.
func (r *RSSFetcher) Name() string { return r.name }

type feedLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

// feedItem covers both RSS <item> and Atom <entry> elements.
type feedItem struct {
	Title       string     `xml:"title"`
	Links       []feedLink `xml:"link"`
	GUID        string     `xml:"guid"`
	PubDate     string     `xml:"pubDate"`
	Published   string     `xml:"published"`
	Updated     string     `xml:"updated"`
	Description string     `xml:"description"`
	Summary     string     `xml:"summary"`
	Encoded     string     `xml:"encoded"`
	Content     string     `xml:"content"`
}

func (it feedItem) link() string {
	for _, l := range it.Links {
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return strings.TrimSpace(l.Href)
		}
		if t := strings.TrimSpace(l.Text); t != "" {
			return t
		}
	}
	if strings.HasPrefix(it.GUID, "http") {
		return strings.TrimSpace(it.GUID)
	}
	return ""
}

func (it feedItem) date() string {
	for _, d := range []string{it.PubDate, it.Published, it.Updated} {
		if d != "" {
			return normalizeDate(d)
		}
	}
	return ""
}

func (it feedItem) body() string {
	for _, b := range []string{it.Encoded, it.Content, it.Description, it.Summary} {
		if strings.TrimSpace(b) != "" {
			return b
		}
	}
	return ""
}

// Fetch implements Fetcher.
func (r *RSSFetcher) Fetch(ctx context.Context) ([]model.SourceDocument, error) {
	body, err := r.http.Download(ctx, r.url)
	if err != nil {
		return nil, eris.Wrapf(err, "rss: fetch %s", r.url)
	}
	defer body.Close() //nolint:errcheck

	items, err := fetcher.CollectXML[feedItem](ctx, body, 0, "item", "entry")
	if err != nil && len(items) == 0 {
		return nil, eris.Wrapf(err, "rss: parse %s", r.url)
	}
	if err != nil {
		zap.L().Warn("rss: feed truncated", zap.String("source", r.name), zap.Int("items", len(items)), zap.Error(err))
	}

	conv := md.NewConverter("", true, nil)
	seen := make(map[string]bool)
	var docs []model.SourceDocument
	for _, it := range items {
		link := it.link()
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		doc := model.SourceDocument{
			URL:        link,
			Title:      collapse(htmlText(it.Title)),
			Type:       TypeNews,
			Date:       it.date(),
			SourceName: r.name,
		}
		if raw := it.body(); raw != "" {
			if content, err := conv.ConvertString(raw); err == nil && len(content) >= minInlineContent {
				doc.Content = strings.TrimSpace(content)
			}
		}
		docs = append(docs, doc)
		if len(docs) >= r.limit {
			break
		}
	}
	return docs, nil
}

// htmlText returns the text of an HTML fragment. Plain text passes through.
func htmlText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
