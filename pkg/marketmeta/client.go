// Package marketmeta classifies markets by topic. Each market points at an
// event; the event's tag slugs drive the category/subcategory derivation.
package marketmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// Market is one record of the batched market lookup. Markets carry zero or
// one associated event.
type Market struct {
	ConditionID string     `json:"conditionId"`
	Events      []EventRef `json:"events"`
}

// EventRef identifies the metadata event a market belongs to.
type EventRef struct {
	ID string `json:"id"`
}

// EventID returns the first associated event id, or "" when the market has
// none.
func (m Market) EventID() string {
	for _, event := range m.Events {
		if id := strings.TrimSpace(event.ID); id != "" {
			return id
		}
	}
	return ""
}

// MetadataClient is the outbound surface the resolver consumes.
type MetadataClient interface {
	// Markets performs one batched lookup by condition ids.
	Markets(ctx context.Context, conditionIDs []string) ([]Market, error)
	// EventTags returns the normalized tag slugs of one event.
	EventTags(ctx context.Context, eventID string) ([]string, error)
}

// Client queries a gamma-style market-metadata service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientHTTP injects a custom http.Client.
func WithClientHTTP(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a metadata client for the given endpoint.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Markets fetches market records for up to one chunk of condition ids.
func (c *Client) Markets(ctx context.Context, conditionIDs []string) ([]Market, error) {
	query := url.Values{}
	for _, id := range conditionIDs {
		query.Add("condition_ids", id)
	}
	var markets []Market
	if err := c.getJSON(ctx, "/markets?"+query.Encode(), &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

type eventPayload struct {
	ID   string `json:"id"`
	Tags []struct {
		Slug string `json:"slug"`
	} `json:"tags"`
}

// EventTags fetches one event and returns its tag slugs, lower-cased and
// in service order.
func (c *Client) EventTags(ctx context.Context, eventID string) ([]string, error) {
	var payload eventPayload
	if err := c.getJSON(ctx, "/events/"+url.PathEscape(eventID), &payload); err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(payload.Tags))
	for _, tag := range payload.Tags {
		if slug := strings.ToLower(strings.TrimSpace(tag.Slug)); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("marketmeta: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketmeta: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("marketmeta: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("marketmeta: http status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("marketmeta: decode response: %w", err)
	}
	return nil
}
