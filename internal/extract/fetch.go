package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html"

	"github.com/csmajors/bracket-predictor/internal/config"
)

// Fetcher downloads and parses bracket pages.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	userAgent  string
}

// NewFetcher creates a Fetcher bounded by the extract config.
func NewFetcher(cfg config.ExtractConfig) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		maxBytes:   cfg.MaxBodyBytes,
		userAgent:  cfg.UserAgent,
	}
}

// Fetch downloads url and parses the body into an HTML document.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// Parse parses raw HTML from a reader, for local files and tests.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return doc, nil
}
