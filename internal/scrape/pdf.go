package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const maxPDFBody = 50 << 20

// TextExtractor turns PDF bytes into text. *ocr.PdfToText and
// *ocr.MistralOCR satisfy it.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// PDFScraper downloads PDF documents, typically technical reports, and
// extracts their text.
type PDFScraper struct {
	client    *http.Client
	userAgent string
	extractor TextExtractor
}

// NewPDFScraper creates a PDFScraper.
func NewPDFScraper(extractor TextExtractor, userAgent string) *PDFScraper {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; MiningIntelBot/1.0)"
	}
	return &PDFScraper{
		client:    &http.Client{Timeout: 2 * time.Minute},
		userAgent: userAgent,
		extractor: extractor,
	}
}

// Name implements Scraper.
func (p *PDFScraper) Name() string { return "pdf" }

// Supports implements Scraper. Only URLs whose path ends in .pdf are
// handled.
func (p *PDFScraper) Supports(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

// Scrape implements Scraper.
func (p *PDFScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pdf: create request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdf: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("pdf: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBody+1))
	if err != nil {
		return nil, eris.Wrap(err, "pdf: read body")
	}
	if len(body) > maxPDFBody {
		return nil, eris.Errorf("pdf: document larger than %d bytes", maxPDFBody)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return nil, eris.New("pdf: not a pdf document")
	}

	text, err := p.extractor.ExtractText(ctx, body)
	if err != nil {
		return nil, eris.Wrap(err, "pdf: extract text")
	}
	text = strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
	if len(text) < MinContentChars {
		return nil, eris.New("pdf: no extractable text")
	}

	return &Result{
		Page: Page{
			URL:        targetURL,
			Title:      pdfTitle(text),
			Markdown:   text,
			StatusCode: resp.StatusCode,
		},
		Source: "pdf",
	}, nil
}

// pdfTitle uses the first non-empty line, which is the cover title of most
// reports.
func pdfTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			if len(line) > 200 {
				line = line[:200]
			}
			return line
		}
	}
	return ""
}
