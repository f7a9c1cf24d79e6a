// Package enrich contains the trade enrichment core: deduplication of the
// raw feed and the orchestrator that fans out to the wallet-birth and
// market-category resolvers.
package enrich

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Side is the taker side of a fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is one raw fill from the trade feed. Fields are immutable
// once ingested; enrichment output lives on EnrichedTrade.
type TradeRecord struct {
	ProxyWallet     string  // trading wallet (proxy contract) address
	ConditionID     string  // market condition identifier
	Side            Side    // BUY or SELL
	Size            float64 // outcome shares
	Price           float64 // price per share in USD
	Timestamp       int64   // unix seconds
	TransactionHash string  // settlement tx, optional
	Title           string  // human-readable market label
}

// IdentityKey is the dedup identity: the settlement tx hash when present,
// otherwise a composite of the fields that pin down a unique fill.
func (t TradeRecord) IdentityKey() string {
	if hash := strings.TrimSpace(t.TransactionHash); hash != "" {
		return strings.ToLower(hash)
	}
	return fmt.Sprintf("%s|%d|%s|%g|%g|%s",
		strings.ToLower(t.ProxyWallet), t.Timestamp, t.Side, t.Size, t.Price, t.ConditionID)
}

// CashAmount is the USD notional of the fill, rounded to cents. Non-finite
// products collapse to zero rather than leaking NaN into responses.
func (t TradeRecord) CashAmount() float64 {
	amount := t.Size * t.Price
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return math.Round(amount*100) / 100
}

// Category is the topical classification resolved for a market.
type Category struct {
	Category    string
	Subcategory string
	Tags        []string
}

// CategoryOther is the fallback classification when no event tags resolve.
const CategoryOther = "Other"

// Uncategorized is the Category applied to markets whose lookup failed.
func Uncategorized() Category {
	return Category{Category: CategoryOther, Subcategory: CategoryOther, Tags: []string{}}
}

// EnrichedTrade is a TradeRecord joined with its derived metadata.
type EnrichedTrade struct {
	TradeRecord

	CashAmount      float64
	WalletCreatedAt *time.Time // nil when the wallet birth is unknown
	Category        string
	Subcategory     string
	Tags            []string
}
