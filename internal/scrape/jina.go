package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/resilience"
	"github.com/sells-group/mining-intel/pkg/jina"
)

// JinaAdapter wraps a Jina Reader client as a Scraper. Jina handles PDFs,
// which covers most technical reports and filing exhibits.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter creates a JinaAdapter. A nil breaker gets one that opens
// after 3 consecutive failures for 60s, sending traffic to the next scraper.
func NewJinaAdapter(client jina.Client, breaker *resilience.CircuitBreaker) *JinaAdapter {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     60 * time.Second,
		})
	}
	return &JinaAdapter{client: client, breaker: breaker}
}

// Name implements Scraper.
func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a URL via Jina Reader and validates the response.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Page: Page{
			URL:        resp.Data.URL,
			Title:      resp.Data.Title,
			Markdown:   resp.Data.Content,
			StatusCode: resp.Code,
		},
		Source: "jina",
	}, nil
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
	"subscribe to continue reading",
}

// needsFallback reports whether a Jina response is empty or a challenge
// page rather than the document.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < MinContentChars {
		return true
	}

	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) && len(content) < 1500 {
			return true
		}
	}
	return false
}
