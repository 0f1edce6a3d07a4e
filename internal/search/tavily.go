// Package search wraps the Tavily web-search API. Search context is strictly
// advisory: the prediction service degrades to "no context" on any failure
// here, so nothing in this package is load-bearing for correctness.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/csmajors/bracket-predictor/internal/config"
)

// Snippet is one ranked search result.
type Snippet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Response is the subset of the Tavily response the predictor uses.
type Response struct {
	Answer  string    `json:"answer,omitempty"`
	Results []Snippet `json:"results"`
}

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Client issues keyword queries against the search API. Each query runs
// under the configured per-query timeout regardless of the caller's context.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	domains    []string
	httpClient *http.Client
}

// NewClient creates a search client from config. An empty API key is allowed;
// Search will fail and the caller treats that as "no context".
func NewClient(cfg config.SearchConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		domains:    cfg.Domains,
		httpClient: &http.Client{Timeout: cfg.QueryTimeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Search runs one keyword query and returns the answer plus ranked snippets.
func (c *Client) Search(ctx context.Context, query string, scoped bool) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("search API key not configured")
	}

	reqBody := searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    c.maxResults,
	}
	if scoped {
		reqBody.IncludeDomains = c.domains
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search HTTP %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &out, nil
}
