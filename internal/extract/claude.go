package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/resilience"
	"github.com/sells-group/mining-intel/pkg/anthropic"
)

// DefaultContentMaxChars bounds the document text sent to the model.
const DefaultContentMaxChars = 60000

const systemPrompt = `You extract mining project data from documents such as press releases, technical reports and SEC filings.

Return ONLY a JSON array. Each element describes one distinct, named mining project:
{
  "project_name": string,
  "company_name": string,
  "description": string (one or two sentences),
  "location": string ("Region, Country"),
  "commodity": string (primary commodity),
  "stage": one of "Exploration", "Pre-Feasibility", "Feasibility", "Construction", "Production",
  "metrics": {
    "npv_usd_m": number (after-tax NPV, USD millions),
    "irr_pct": number (after-tax IRR, percent),
    "capex_usd_m": number (initial capex, USD millions),
    "aisc_usd": number (all-in sustaining cost per unit),
    "annual_production": number,
    "mine_life_years": number,
    "payback_years": number,
    "resource_tonnage_mt": number (million tonnes)
  }
}

Only include metrics the document states; use null otherwise. Never invent
project or company names. If the document describes no specific project,
return [].`

// ClaudeConfig configures the Claude-backed capability.
type ClaudeConfig struct {
	Model           string
	MaxTokens       int64
	ContentMaxChars int
	Retry           resilience.RetryConfig
	Breaker         *resilience.CircuitBreaker
	Metrics         *metrics.Pipeline
}

// Claude implements Capability over the Anthropic Messages API. Calls are
// retried on transient API errors and guarded by a circuit breaker so a dead
// endpoint fails fast across documents.
type Claude struct {
	client anthropic.Client
	cfg    ClaudeConfig
}

// NewClaude creates a Claude capability.
func NewClaude(client anthropic.Client, cfg ClaudeConfig) *Claude {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.ContentMaxChars <= 0 {
		cfg.ContentMaxChars = DefaultContentMaxChars
	}
	if cfg.Retry.ShouldRetry == nil {
		cfg.Retry.ShouldRetry = isRetryableAPIError
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			ShouldTrip: isRetryableAPIError,
		})
	}
	return &Claude{client: client, cfg: cfg}
}

// ExtractProjects implements Capability.
func (c *Claude) ExtractProjects(ctx context.Context, in Input, max int) ([]model.RawExtractedProject, error) {
	if max <= 0 {
		max = 1
	}
	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      anthropic.CachedSystem(systemPrompt, "5m"),
		Messages:    []anthropic.Message{{Role: "user", Content: c.userPrompt(in, max)}},
		Temperature: &temp,
	}

	resp, err := resilience.ExecuteVal(ctx, c.cfg.Breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.DoVal(ctx, c.cfg.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return c.client.CreateMessage(ctx, req)
		})
	})
	if err != nil {
		c.cfg.Metrics.ExtractionCall("error")
		return nil, eris.Wrapf(err, "extract: claude call for %s", in.URL)
	}
	resp.Usage.LogCost(c.cfg.Model, "extract", zap.String("url", in.URL))

	projects, err := ParseProjects(resp.Text())
	if err != nil {
		c.cfg.Metrics.ExtractionCall("unparseable")
		return nil, err
	}
	c.cfg.Metrics.ExtractionCall("ok")

	if len(projects) > max {
		projects = projects[:max]
	}
	return projects, nil
}

func (c *Claude) userPrompt(in Input, max int) string {
	content := in.Content
	if len(content) > c.cfg.ContentMaxChars {
		content = strings.ToValidUTF8(content[:c.cfg.ContentMaxChars], "")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract at most %d mining project(s) from this document.\n\n", max)
	if in.Kind != "" {
		fmt.Fprintf(&b, "Document type: %s\n", in.Kind)
	}
	if in.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", in.Title)
	}
	if in.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", in.URL)
	}
	b.WriteString("\n<document>\n")
	b.WriteString(content)
	b.WriteString("\n</document>")
	return b.String()
}

// isRetryableAPIError treats rate limits, overload (529) and server errors
// as transient, plus the usual network failures.
func isRetryableAPIError(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 529 || resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}
