package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const maxLocalBody = 2 << 20

// LocalScraper fetches HTML via net/http, detects blocks and converts the
// main content to markdown. It makes no paid API calls, so it sits at the
// end of the chain as a last resort.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// NewLocalScraper creates a LocalScraper. An empty userAgent selects a
// generic one.
func NewLocalScraper(userAgent string) *LocalScraper {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; MiningIntelBot/1.0)"
	}
	return &LocalScraper{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local_http" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects blocked and non-HTML responses, and returns
// the main content as markdown.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLocalBody))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return nil, eris.Errorf("local_http: unsupported content type %q", ct)
	}

	title, markdown, err := htmlToMarkdown(body)
	if err != nil {
		return nil, err
	}
	if len(markdown) < MinContentChars {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: Page{
			URL:        targetURL,
			Title:      title,
			Markdown:   markdown,
			StatusCode: resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// htmlToMarkdown returns the page title and the markdown of its main
// content: <article>, else <main>, else <body>, with page chrome removed.
func htmlToMarkdown(body []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", eris.Wrap(err, "local_http: parse html")
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}

	html, err := goquery.OuterHtml(content)
	if err != nil {
		return "", "", eris.Wrap(err, "local_http: render html")
	}

	markdown, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return "", "", eris.Wrap(err, "local_http: convert to markdown")
	}
	markdown = blankLines.ReplaceAllString(markdown, "\n\n")
	return title, strings.TrimSpace(markdown), nil
}
