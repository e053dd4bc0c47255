package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dondendo89/Prezzibenzina/internal/feed"
	"github.com/dondendo89/Prezzibenzina/internal/fetch"
)

// DefaultRegistryURL is the active-stations registry export published by MIMIT.
const DefaultRegistryURL = "https://www.mimit.gov.it/images/exportCSV/anagrafica_impianti_attivi.csv"

// minRegistryCells is the minimum cell count for a well-formed registry row.
const minRegistryCells = 6

// ClientConfig holds configuration for the registry client.
type ClientConfig struct {
	// URL is the registry export URL (defaults to DefaultRegistryURL).
	URL string

	// HTTPClient is the HTTP client to use. If nil, a resilient client with
	// retries and a circuit breaker is created.
	HTTPClient feed.HTTPDoer

	// Timeout for the registry download (default: 30s).
	Timeout time.Duration
}

// Client downloads and parses the station registry export. The registry uses
// the same encoding, delimiter, and banner convention as the price feed.
type Client struct {
	url        string
	httpClient feed.HTTPDoer
}

// NewClient creates a new registry client.
func NewClient(cfg ClientConfig) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultRegistryURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = fetch.NewClient(fetch.ClientConfig{
			Name:    "mimit-registry",
			Timeout: cfg.Timeout,
		})
	}

	return &Client{url: url, httpClient: httpClient}
}

// FetchStations downloads the registry export and returns the parsed entries.
// Rows without a station identifier are dropped; coordinate cells go through
// the same lenient numeric parsing as prices.
func (c *Client) FetchStations(ctx context.Context) ([]*Station, error) {
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

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}

	return ParseStations(raw), nil
}

// ParseStations parses raw registry export bytes into entries.
func ParseStations(raw []byte) []*Station {
	rows := feed.ParseTable(feed.DecodeLatin1(raw))
	_, data, cols := feed.ResolveHeader(rows, minRegistryCells)

	stations := make([]*Station, 0, len(data))
	for _, row := range data {
		id := cols.Cell(row, feed.FieldStationID)
		if id == "" {
			continue
		}
		stations = append(stations, &Station{
			ID:           id,
			Name:         cols.Cell(row, feed.FieldOwner),
			Municipality: cols.Cell(row, feed.FieldMunicipality),
			Province:     cols.Cell(row, feed.FieldProvince),
			FuelType:     cols.Cell(row, feed.FieldPlantType),
			Lat:          feed.ParseNumber(cols.Cell(row, feed.FieldLatitude)),
			Lon:          feed.ParseNumber(cols.Cell(row, feed.FieldLongitude)),
		})
	}
	return stations
}
