// Package poolbrain is the client for the Pool Brain product catalog API.
// Responses are normalized into domain.CatalogProduct; see normalize.go for
// the field-resolution contract.
package poolbrain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/heritagepool/poolops/internal/domain"
)

const (
	// DefaultBaseURL is the production Pool Brain OpenAPI endpoint
	DefaultBaseURL = "https://prodapi.poolbrain.com"
	// DefaultPageSize is the batch size used when paginating the full catalog
	DefaultPageSize = 500

	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 32 * 1024 * 1024
)

// ErrNoAPIKey is returned when the Pool Brain API key is not configured
var ErrNoAPIKey = errors.New("POOLBRAIN_API_KEY is not configured")

// Client talks to the Pool Brain product API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithPageSize sets the pagination batch size.
func WithPageSize(size int) Option {
	return func(client *Client) {
		if size > 0 {
			client.pageSize = size
		}
	}
}

// NewClient creates a Pool Brain client. baseURL may be empty to use the
// production endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the wrapped response shape some endpoints return.
type apiResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    []RawRecord `json:"data"`
}

// FetchPage fetches one page of raw product records. Inactive records
// (Status == 0) are filtered out before returning; the second return value is
// the unfiltered record count of the page, which callers must use to advance
// pagination.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]RawRecord, int, error) {
	if c.apiKey == "" {
		return nil, 0, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product_list?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ACCESS-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("pool brain request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read pool brain response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("pool brain API error: %d - %s", resp.StatusCode, truncate(string(body), 200))
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, 0, err
	}

	active := make([]RawRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsActive() {
			active = append(active, rec)
		}
	}
	return active, len(records), nil
}

// decodeRecords handles both the bare-array and the wrapped {data: [...]}
// response shapes the API is known to return.
func decodeRecords(body []byte) ([]RawRecord, error) {
	var records []RawRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapped apiResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	return nil, fmt.Errorf("unexpected pool brain response format: %s", truncate(string(body), 200))
}

// FetchAll paginates through the whole catalog and returns normalized
// products. A short or empty raw page signals end-of-data; the raw count is
// used because a page can shrink below the limit after inactive-record
// filtering without being the last page.
func (c *Client) FetchAll(ctx context.Context) ([]domain.CatalogProduct, error) {
	var all []domain.CatalogProduct
	offset := 0

	for {
		batch, rawCount, err := c.FetchPage(ctx, offset, c.pageSize)
		if err != nil {
			return nil, err
		}

		for _, rec := range batch {
			all = append(all, Normalize(rec))
		}
		offset += rawCount

		if rawCount < c.pageSize {
			break
		}
	}

	log.Printf("pool brain: fetched %d products", len(all))
	return all, nil
}

// TestConnection checks reachability by fetching a single record.
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := c.FetchPage(ctx, 0, 1)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
