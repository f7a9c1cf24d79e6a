// Package wallet resolves the on-chain creation time of trading wallets.
// The lookup is chained: a block-explorer provider maps an address to its
// creation transaction, then the chain RPC maps that transaction to a block
// timestamp.
package wallet

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

// TxLocator maps a wallet address to the hash of its creation transaction.
// A provider that has no record returns ("", nil); errors are reserved for
// transport and decode failures.
type TxLocator interface {
	CreationTx(ctx context.Context, address string) (string, error)
}

// ScanClient queries an Etherscan-compatible explorer API for contract
// creation transactions. Both the primary and the legacy provider speak
// this contract; only the base URL differs.
type ScanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ScanOption configures a ScanClient.
type ScanOption func(*ScanClient)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) ScanOption {
	return func(c *ScanClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIKey attaches an explorer API key to every request.
func WithAPIKey(key string) ScanOption {
	return func(c *ScanClient) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// NewScanClient constructs an explorer client for the given endpoint.
func NewScanClient(baseURL string, opts ...ScanOption) *ScanClient {
	client := &ScanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type scanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type creationRecord struct {
	ContractAddress string `json:"contractAddress"`
	TxHash          string `json:"txHash"`
}

// CreationTx returns the creation transaction hash for address, or "" when
// the provider has no record of it. Unexpected response shapes are treated
// as absence, matching the enrichment pipeline's degrade-don't-fail policy.
func (c *ScanClient) CreationTx(ctx context.Context, address string) (string, error) {
	query := url.Values{}
	query.Set("module", "contract")
	query.Set("action", "getcontractcreation")
	query.Set("contractaddresses", address)
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	endpoint := c.baseURL + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("wallet: build scan request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wallet: scan request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("wallet: read scan response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("wallet: scan http status %d: %s", resp.StatusCode, string(body))
	}

	var envelope scanEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("wallet: decode scan response: %w", err)
	}
	// Status "0" covers both "no records found" and throttling messages;
	// neither yields a usable hash.
	if envelope.Status != "1" || len(envelope.Result) == 0 {
		return "", nil
	}
	var records []creationRecord
	if err := json.Unmarshal(envelope.Result, &records); err != nil {
		return "", nil
	}
	for _, record := range records {
		if hash := strings.TrimSpace(record.TxHash); hash != "" {
			return hash, nil
		}
	}
	return "", nil
}
