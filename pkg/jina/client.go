// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/resilience"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the markdown content.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search performs a web search via Jina AI Search and returns results.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed Jina API response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content from Jina.
type ReadData struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Content       string    `json:"content"`
	PublishedTime string    `json:"publishedTime"`
	Usage         ReadUsage `json:"usage"`
}

// ReadUsage tracks token consumption.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the parsed Jina Search API response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	siteFilter string
	limit      int
}

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(o *searchOpts) {
		o.siteFilter = domain
	}
}

// WithLimit caps the number of results returned.
func WithLimit(n int) SearchOption {
	return func(o *searchOpts) {
		o.limit = n
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithSearchBaseURL sets a custom search base URL (for testing).
func WithSearchBaseURL(url string) Option {
	return func(c *httpClient) {
		c.searchBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
	retry         resilience.RetryConfig
}

// NewClient creates a new Jina AI Reader client.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = time.Second
	retry.OnRetry = resilience.RetryLogger("jina", "request")

	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	status int
	body   []byte
}

// get issues a GET and retries transient statuses and network errors. The
// final response is returned whatever its status.
func (c *httpClient) get(ctx context.Context, reqURL string, headers map[string]string) (response, error) {
	var last response
	_, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return struct{}{}, eris.Wrap(err, "create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, resilience.NewTransientError(err, 0)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return struct{}{}, eris.Wrap(err, "read response body")
		}

		last = response{status: resp.StatusCode, body: body}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return struct{}{}, resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil && last.status == 0 {
		return response{}, err
	}
	return last, nil
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/%s", c.baseURL, targetURL), map[string]string{
		"X-Return-Format": "markdown",
		"X-Retain-Images": "none",
	})
	if err != nil {
		return nil, eris.Wrap(err, "jina: request failed")
	}

	if resp.status != http.StatusOK {
		return nil, eris.Errorf("jina: unexpected status %d: %s", resp.status, string(resp.body))
	}

	var result ReadResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}

	return &result, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	reqURL := fmt.Sprintf("%s/%s", c.searchBaseURL, url.PathEscape(query))
	params := url.Values{}
	if so.siteFilter != "" {
		params.Set("site", so.siteFilter)
	}
	if so.limit > 0 {
		params.Set("num", strconv.Itoa(so.limit))
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.get(ctx, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: search request failed")
	}

	// Jina returns 422 when no results are available for the query.
	if resp.status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: 422}, nil
	}

	if resp.status != http.StatusOK {
		return nil, eris.Errorf("jina: search unexpected status %d: %s", resp.status, string(resp.body))
	}

	var result SearchResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}

	if so.limit > 0 && len(result.Data) > so.limit {
		result.Data = result.Data[:so.limit]
	}
	return &result, nil
}
