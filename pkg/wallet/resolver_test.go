package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelens-api/internal/cache"
)

// fakeLocator scripts CreationTx answers per address and tracks concurrency.
type fakeLocator struct {
	mu       sync.Mutex
	hashes   map[string]string
	errs     map[string]error
	failures map[string]int // fail the first N calls per address
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration
}

func (f *fakeLocator) CreationTx(ctx context.Context, address string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	remaining := f.failures[address]
	if remaining > 0 {
		f.failures[address] = remaining - 1
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if remaining > 0 {
		return "", errors.New("provider unavailable")
	}
	if err, ok := f.errs[address]; ok {
		return "", err
	}
	return f.hashes[address], nil
}

func (f *fakeLocator) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeChain maps every tx hash to block 100 at a fixed timestamp.
type fakeChain struct {
	blockTime time.Time
	err       error
}

func (f *fakeChain) TxBlockNumber(ctx context.Context, txHash common.Hash) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 100, nil
}

func (f *fakeChain) BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	return f.blockTime, nil
}

func fastConfig() *Config {
	return &Config{
		Workers:   2,
		Pace:      time.Millisecond,
		RetryPace: time.Millisecond,
		RetryCap:  30,
	}
}

func testCache() *BirthCache {
	return NewBirthCache("", cache.Policy{Positive: time.Hour, Negative: 10 * time.Minute})
}

func TestResolveBirthsHappyPath(t *testing.T) {
	birth := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	primary := &fakeLocator{hashes: map[string]string{
		"0xaaa": "0x111",
		"0xbbb": "0x222",
	}}
	r := NewResolver(primary, nil, &fakeChain{blockTime: birth}, testCache(), fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xAAA", "0xbbb"}, 500)
	require.Len(t, results, 2)
	require.NotNil(t, results["0xaaa"])
	assert.True(t, birth.Equal(*results["0xaaa"]))
	require.NotNil(t, results["0xbbb"])
}

func TestResolveBirthsTotalityOverFailures(t *testing.T) {
	primary := &fakeLocator{errs: map[string]error{
		"0xbad": errors.New("boom"),
	}}
	secondary := &fakeLocator{errs: map[string]error{
		"0xbad": errors.New("boom"),
	}}
	cfg := fastConfig()
	cfg.RetryCap = 1
	r := NewResolver(primary, secondary, &fakeChain{}, testCache(), cfg)

	results := r.ResolveBirths(context.Background(), []string{"0xbad", "0xunknown"}, 500)
	require.Len(t, results, 2)
	assert.Nil(t, results["0xbad"])
	assert.Nil(t, results["0xunknown"])
}

func TestResolveBirthsCapTruncates(t *testing.T) {
	primary := &fakeLocator{}
	r := NewResolver(primary, nil, &fakeChain{}, testCache(), fastConfig())

	addresses := make([]string, 40)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("0x%03d", i)
	}
	results := r.ResolveBirths(context.Background(), addresses, 10)
	assert.Len(t, results, 10)
	for i := 0; i < 10; i++ {
		_, present := results[fmt.Sprintf("0x%03d", i)]
		assert.True(t, present, "address %d within cap must be present", i)
	}
	_, present := results["0x011"]
	assert.False(t, present, "addresses beyond the cap stay out of the result")
}

func TestResolveBirthsDeduplicatesCaseVariants(t *testing.T) {
	primary := &fakeLocator{hashes: map[string]string{"0xaaa": "0x111"}}
	r := NewResolver(primary, nil, &fakeChain{blockTime: time.Now()}, testCache(), fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xAAA", "0xaaa", " 0xAaA "}, 500)
	require.Len(t, results, 1)
	assert.Equal(t, 1, primary.totalCalls())
}

func TestResolveBirthsBoundedConcurrency(t *testing.T) {
	primary := &fakeLocator{delay: 10 * time.Millisecond}
	r := NewResolver(primary, nil, &fakeChain{}, testCache(), fastConfig())

	addresses := make([]string, 12)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("0x%03d", i)
	}
	r.ResolveBirths(context.Background(), addresses, 500)
	assert.LessOrEqual(t, primary.maxSeen, 2)
}

func TestResolveBirthsServedFromCache(t *testing.T) {
	birth := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)
	store := testCache()
	store.Put("0xaaa", birth.Unix())

	primary := &fakeLocator{}
	r := NewResolver(primary, nil, &fakeChain{}, store, fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	require.NotNil(t, results["0xaaa"])
	assert.True(t, birth.Equal(*results["0xaaa"]))
	assert.Zero(t, primary.totalCalls(), "cache hits must not reach the provider")
}

func TestResolveBirthsFreshNegativeNotRetried(t *testing.T) {
	store := testCache()
	store.Put("0xaaa", 0) // fresh miss from a previous run

	primary := &fakeLocator{hashes: map[string]string{"0xaaa": "0x111"}}
	r := NewResolver(primary, nil, &fakeChain{blockTime: time.Now()}, store, fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	require.Len(t, results, 1)
	assert.Nil(t, results["0xaaa"])
	assert.Zero(t, primary.totalCalls())
}

func TestResolveBirthsWritesNegativeEntryOnFailure(t *testing.T) {
	store := testCache()
	primary := &fakeLocator{errs: map[string]error{"0xaaa": errors.New("boom")}}
	cfg := fastConfig()
	cfg.RetryCap = 1
	r := NewResolver(primary, nil, &fakeChain{}, store, cfg)

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	assert.Nil(t, results["0xaaa"])

	unix, fresh := store.Get("0xaaa")
	assert.Zero(t, unix)
	assert.True(t, fresh, "failed lookups leave a fresh negative entry behind")
}

func TestResolveBirthsSecondaryFallback(t *testing.T) {
	birth := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	primary := &fakeLocator{} // no record
	secondary := &fakeLocator{hashes: map[string]string{"0xaaa": "0x999"}}
	r := NewResolver(primary, secondary, &fakeChain{blockTime: birth}, testCache(), fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	require.NotNil(t, results["0xaaa"])
	assert.True(t, birth.Equal(*results["0xaaa"]))
}

func TestResolveBirthsRetryPassRecovers(t *testing.T) {
	birth := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	primary := &fakeLocator{
		hashes:   map[string]string{"0xaaa": "0x111"},
		failures: map[string]int{"0xaaa": 1}, // first attempt fails
	}
	r := NewResolver(primary, nil, &fakeChain{blockTime: birth}, testCache(), fastConfig())

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	require.NotNil(t, results["0xaaa"], "retry pass should recover a transient failure")
	assert.True(t, birth.Equal(*results["0xaaa"]))
	assert.Equal(t, 2, primary.totalCalls())
}

func TestResolveBirthsChainFailureDegrades(t *testing.T) {
	primary := &fakeLocator{hashes: map[string]string{"0xaaa": "0x111"}}
	cfg := fastConfig()
	cfg.RetryCap = 1
	r := NewResolver(primary, nil, &fakeChain{err: errors.New("rpc down")}, testCache(), cfg)

	results := r.ResolveBirths(context.Background(), []string{"0xaaa"}, 500)
	require.Len(t, results, 1)
	assert.Nil(t, results["0xaaa"])
}
