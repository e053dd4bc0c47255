package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dondendo89/Prezzibenzina/internal/fetch"
)

const (
	// DefaultFeedURL is the daily 8:00 price export published by MIMIT.
	DefaultFeedURL = "https://www.mimit.gov.it/images/exportCSV/prezzo_alle_8.csv"

	// ProviderName identifies this feed source.
	ProviderName = "mimit"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the feed client.
type ClientConfig struct {
	// URL is the feed export URL (defaults to DefaultFeedURL).
	URL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client with
	// retries and a circuit breaker is created.
	HTTPClient HTTPDoer

	// Timeout for the feed download (default: 30s).
	Timeout time.Duration
}

// Client downloads and parses the price feed.
type Client struct {
	url        string
	httpClient HTTPDoer
}

// NewClient creates a new feed client.
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultFeedURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = fetch.NewClient(fetch.ClientConfig{
			Name:    ProviderName,
			Timeout: cfg.Timeout,
		})
	}

	return &Client{url: url, httpClient: httpClient}
}

// FetchRaw downloads the feed export bytes. A transport error or non-success
// status is fatal: the caller must not attempt a partial ingestion.
func (c *Client) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	return body, nil
}

// FetchRecords downloads the feed and returns the normalized records.
func (c *Client) FetchRecords(ctx context.Context) ([]Record, error) {
	raw, err := c.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return ParseRecords(raw), nil
}
