// Package trades wraps the upstream trade feed: a paginated REST listing
// that produces the raw batch the enrichment core operates on.
package trades

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradelens-api/pkg/enrich"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultPageSize    = 100
)

// Client fetches recent trades from the data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPageSize sets the per-request page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient constructs a trade feed client.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type tradePayload struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	ConditionID     string  `json:"conditionId"`
	Timestamp       int64   `json:"timestamp"`
	TransactionHash string  `json:"transactionHash"`
	Title           string  `json:"title"`
}

// Recent fetches up to limit trades, newest first, walking pages until the
// feed runs short.
func (c *Client) Recent(ctx context.Context, limit int) ([]enrich.TradeRecord, error) {
	if limit <= 0 {
		limit = c.pageSize
	}
	records := make([]enrich.TradeRecord, 0, limit)
	for offset := 0; len(records) < limit; offset += c.pageSize {
		page, err := c.fetchPage(ctx, c.pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, payload := range page {
			records = append(records, convert(payload))
			if len(records) == limit {
				break
			}
		}
		if len(page) < c.pageSize {
			break
		}
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, limit, offset int) ([]tradePayload, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("takerOnly", "true")

	endpoint := c.baseURL + "/trades?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("trades: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trades: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("trades: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("trades: http status %d: %s", resp.StatusCode, string(body))
	}
	var page []tradePayload
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("trades: decode response: %w", err)
	}
	return page, nil
}

func convert(payload tradePayload) enrich.TradeRecord {
	return enrich.TradeRecord{
		ProxyWallet:     payload.ProxyWallet,
		ConditionID:     payload.ConditionID,
		Side:            enrich.Side(strings.ToUpper(payload.Side)),
		Size:            payload.Size,
		Price:           payload.Price,
		Timestamp:       payload.Timestamp,
		TransactionHash: payload.TransactionHash,
		Title:           payload.Title,
	}
}
