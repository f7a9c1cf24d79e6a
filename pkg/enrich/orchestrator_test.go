package enrich

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBirthResolver struct {
	mu        sync.Mutex
	calls     int
	addresses []string
	cap       int
	result    map[string]*time.Time
	delay     time.Duration
}

func (f *fakeBirthResolver) ResolveBirths(ctx context.Context, addresses []string, cap int) map[string]*time.Time {
	f.mu.Lock()
	f.calls++
	f.addresses = append([]string(nil), addresses...)
	f.cap = cap
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result
}

type fakeCategoryResolver struct {
	mu     sync.Mutex
	calls  int
	ids    []string
	result map[string]Category
}

func (f *fakeCategoryResolver) ResolveCategories(ctx context.Context, conditionIDs []string) map[string]Category {
	f.mu.Lock()
	f.calls++
	f.ids = append([]string(nil), conditionIDs...)
	f.mu.Unlock()
	return f.result
}

func TestEnrichJoinsResolverOutput(t *testing.T) {
	birth := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	births := &fakeBirthResolver{result: map[string]*time.Time{
		"0xaaa": &birth,
		"0xbbb": nil, // looked up, unknown
	}}
	categories := &fakeCategoryResolver{result: map[string]Category{
		"c1": {Category: "Politics", Subcategory: "senate-2026", Tags: []string{"elections", "senate-2026"}},
	}}
	e := NewEnricher(births, categories, nil)

	trades := []TradeRecord{
		{ProxyWallet: "0xAAA", ConditionID: "c1", Side: SideBuy, Size: 10, Price: 0.42, TransactionHash: "0x1"},
		{ProxyWallet: "0xBBB", ConditionID: "c2", Side: SideSell, Size: 3, Price: 0.5, TransactionHash: "0x2"},
	}
	enriched := e.Enrich(context.Background(), trades)
	require.Len(t, enriched, 2)

	assert.Equal(t, 4.2, enriched[0].CashAmount)
	require.NotNil(t, enriched[0].WalletCreatedAt)
	assert.True(t, birth.Equal(*enriched[0].WalletCreatedAt))
	assert.Equal(t, "Politics", enriched[0].Category)
	assert.Equal(t, "senate-2026", enriched[0].Subcategory)

	// Unknown wallet and unmapped market degrade, never error.
	assert.Nil(t, enriched[1].WalletCreatedAt)
	assert.Equal(t, CategoryOther, enriched[1].Category)
	assert.Equal(t, CategoryOther, enriched[1].Subcategory)
	assert.NotNil(t, enriched[1].Tags)
}

func TestEnrichPreservesInputOrder(t *testing.T) {
	births := &fakeBirthResolver{delay: 20 * time.Millisecond}
	categories := &fakeCategoryResolver{}
	e := NewEnricher(births, categories, nil)

	var trades []TradeRecord
	for _, hash := range []string{"0x3", "0x1", "0x2"} {
		trades = append(trades, TradeRecord{ProxyWallet: "0xaaa", TransactionHash: hash})
	}
	enriched := e.Enrich(context.Background(), trades)
	require.Len(t, enriched, 3)
	for i, hash := range []string{"0x3", "0x1", "0x2"} {
		assert.Equal(t, hash, enriched[i].TransactionHash)
	}
}

func TestEnrichDeduplicatesBeforeResolving(t *testing.T) {
	births := &fakeBirthResolver{}
	categories := &fakeCategoryResolver{}
	e := NewEnricher(births, categories, &Config{WalletCap: 7})

	trades := []TradeRecord{
		{ProxyWallet: "0xAAA", ConditionID: "c1", TransactionHash: "0x1"},
		{ProxyWallet: "0xaaa", ConditionID: "c1", TransactionHash: "0x1"},
		{ProxyWallet: "0xBBB", ConditionID: "c2", TransactionHash: "0x2"},
	}
	enriched := e.Enrich(context.Background(), trades)
	require.Len(t, enriched, 2)

	assert.Equal(t, 1, births.calls)
	assert.Equal(t, []string{"0xaaa", "0xbbb"}, births.addresses)
	assert.Equal(t, 7, births.cap)
	assert.Equal(t, 1, categories.calls)
	assert.Equal(t, []string{"c1", "c2"}, categories.ids)
}

func TestEnrichEmptyBatch(t *testing.T) {
	births := &fakeBirthResolver{}
	categories := &fakeCategoryResolver{}
	e := NewEnricher(births, categories, nil)

	assert.Empty(t, e.Enrich(context.Background(), nil))
	assert.Zero(t, births.calls)
	assert.Zero(t, categories.calls)
}

func TestCashAmountRounding(t *testing.T) {
	cases := []struct {
		name  string
		trade TradeRecord
		want  float64
	}{
		{"rounds to cents", TradeRecord{Size: 3, Price: 0.333}, 1.0},
		{"exact", TradeRecord{Size: 10, Price: 0.42}, 4.2},
		{"zero size", TradeRecord{Size: 0, Price: 0.5}, 0},
		{"nan collapses", TradeRecord{Size: math.NaN(), Price: 1}, 0},
		{"inf collapses", TradeRecord{Size: math.Inf(1), Price: 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.trade.CashAmount())
		})
	}
}
