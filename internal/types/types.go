package types

// EnrichedTradeView is the wire shape of one enriched trade.
type EnrichedTradeView struct {
	ProxyWallet     string   `json:"proxyWallet"`
	Title           string   `json:"title"`
	Side            string   `json:"side"`
	CashAmount      float64  `json:"cashAmount"`
	Timestamp       int64    `json:"timestamp"`
	TransactionHash string   `json:"transactionHash,omitempty"`
	WalletCreatedAt *int64   `json:"walletCreatedAt"` // unix seconds, null when unknown
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Tags            []string `json:"tags"`
}

// EnrichedTradesResponse is the payload of GET /api/v1/trades/enriched.
type EnrichedTradesResponse struct {
	Trades     []EnrichedTradeView `json:"trades"`
	ServerTime int64               `json:"serverTime"`
}
