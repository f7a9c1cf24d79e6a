package enrich

import (
	"context"
	"strings"
	"sync"
	"time"
)

// BirthResolver resolves wallet creation timestamps for a set of addresses.
// Implementations never fail; unknown wallets map to nil.
type BirthResolver interface {
	ResolveBirths(ctx context.Context, addresses []string, cap int) map[string]*time.Time
}

// CategoryResolver resolves topical classifications for a set of market
// condition identifiers. Implementations never fail; unknown markets map to
// the Other fallback.
type CategoryResolver interface {
	ResolveCategories(ctx context.Context, conditionIDs []string) map[string]Category
}

// Enricher joins deduplicated trades with the output of both resolvers.
type Enricher struct {
	births     BirthResolver
	categories CategoryResolver
	walletCap  int
	budget     time.Duration
}

// NewEnricher wires an orchestrator from its two resolvers.
func NewEnricher(births BirthResolver, categories CategoryResolver, cfg *Config) *Enricher {
	walletCap := defaultWalletCap
	budget := defaultBudget
	if cfg != nil {
		if cfg.WalletCap > 0 {
			walletCap = cfg.WalletCap
		}
		if cfg.Budget > 0 {
			budget = cfg.Budget
		}
	}
	return &Enricher{
		births:     births,
		categories: categories,
		walletCap:  walletCap,
		budget:     budget,
	}
}

// Enrich deduplicates the batch, runs both resolvers concurrently under the
// overall time budget and joins the results back onto each trade. The output
// preserves post-dedup input order regardless of resolver completion order.
func (e *Enricher) Enrich(ctx context.Context, trades []TradeRecord) []EnrichedTrade {
	unique := Dedupe(trades)
	if len(unique) == 0 {
		return nil
	}

	addresses := distinctAddresses(unique)
	conditionIDs := distinctConditionIDs(unique)

	ctx, cancel := context.WithTimeout(ctx, e.budget)
	defer cancel()

	var (
		wg         sync.WaitGroup
		birthMap   map[string]*time.Time
		categories map[string]Category
	)
	// The resolvers are independent; the cache handles its own locking.
	wg.Add(2)
	go func() {
		defer wg.Done()
		birthMap = e.births.ResolveBirths(ctx, addresses, e.walletCap)
	}()
	go func() {
		defer wg.Done()
		categories = e.categories.ResolveCategories(ctx, conditionIDs)
	}()
	wg.Wait()

	enriched := make([]EnrichedTrade, 0, len(unique))
	for _, trade := range unique {
		row := EnrichedTrade{
			TradeRecord: trade,
			CashAmount:  trade.CashAmount(),
		}
		if createdAt, ok := birthMap[normalizeAddress(trade.ProxyWallet)]; ok {
			row.WalletCreatedAt = createdAt
		}
		category, ok := categories[trade.ConditionID]
		if !ok {
			category = Uncategorized()
		}
		row.Category = category.Category
		row.Subcategory = category.Subcategory
		row.Tags = category.Tags
		enriched = append(enriched, row)
	}
	return enriched
}

func distinctAddresses(trades []TradeRecord) []string {
	seen := make(map[string]struct{}, len(trades))
	out := make([]string, 0, len(trades))
	for _, trade := range trades {
		addr := normalizeAddress(trade.ProxyWallet)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func distinctConditionIDs(trades []TradeRecord) []string {
	seen := make(map[string]struct{}, len(trades))
	out := make([]string, 0, len(trades))
	for _, trade := range trades {
		id := strings.TrimSpace(trade.ConditionID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
