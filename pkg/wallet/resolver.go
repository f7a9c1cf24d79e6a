package wallet

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"tradelens-api/internal/cache"
)

// BirthCache is the tiered cache layout used for wallet births: the value
// is the creation time in unix seconds, with zero standing in for "looked
// up, nothing found yet".
type BirthCache = cache.Cache[int64]

// NewBirthCache builds the wallet-birth cache with the asymmetric TTL
// policy applied: definite timestamps live long, misses expire quickly so
// the next run retries them.
func NewBirthCache(path string, policy cache.Policy) *BirthCache {
	return cache.New(cache.Options[int64]{
		Path: path,
		TTL: func(unix int64) time.Duration {
			if unix == 0 {
				return policy.Negative
			}
			return policy.Positive
		},
	})
}

// Resolver resolves wallet creation timestamps under bounded concurrency.
// It never returns an error; unknown wallets map to nil.
type Resolver struct {
	primary   TxLocator
	secondary TxLocator
	chain     ChainReader
	cache     *BirthCache

	workers   int
	pace      time.Duration
	retryPace time.Duration
	retryCap  int

	flight syncx.SingleFlight
}

// NewResolver wires a birth resolver. secondary may be nil when no legacy
// provider is configured.
func NewResolver(primary, secondary TxLocator, chain ChainReader, store *BirthCache, cfg *Config) *Resolver {
	resolver := &Resolver{
		primary:   primary,
		secondary: secondary,
		chain:     chain,
		cache:     store,
		workers:   defaultWorkers,
		pace:      defaultPace,
		retryPace: defaultRetryPace,
		retryCap:  defaultRetryCap,
		flight:    syncx.NewSingleFlight(),
	}
	if cfg != nil {
		if cfg.Workers > 0 {
			resolver.workers = cfg.Workers
		}
		if cfg.Pace > 0 {
			resolver.pace = cfg.Pace
		}
		if cfg.RetryPace > 0 {
			resolver.retryPace = cfg.RetryPace
		}
		if cfg.RetryCap > 0 {
			resolver.retryCap = cfg.RetryCap
		}
	}
	return resolver
}

// ResolveBirths resolves a creation timestamp (or nil) for every address in
// the working set. The set is case-normalized, deduplicated and truncated to
// cap before any external work starts; addresses dropped by the cap are
// absent from the returned map.
func (r *Resolver) ResolveBirths(ctx context.Context, addresses []string, cap int) map[string]*time.Time {
	working := normalizeSet(addresses)
	if cap > 0 && len(working) > cap {
		working = working[:cap]
	}

	results := make(map[string]*time.Time, len(working))
	var resultsMu sync.Mutex

	// Serve cache-fresh entries directly; everything else goes to the pool.
	var pending []string
	for _, addr := range working {
		if unix, fresh := r.cache.Get(addr); fresh {
			results[addr] = unixToTime(unix)
			continue
		}
		pending = append(pending, addr)
	}

	if len(pending) > 0 {
		queue := make(chan string)
		var wg sync.WaitGroup
		for i := 0; i < r.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for addr := range queue {
					birth := r.lookup(ctx, addr)
					resultsMu.Lock()
					results[addr] = birth
					resultsMu.Unlock()
					sleepCtx(ctx, r.pace)
				}
			}()
		}
		for _, addr := range pending {
			queue <- addr
		}
		close(queue)
		wg.Wait()
	}

	// Second chance for addresses that failed this round: strictly
	// sequential and bounded, with slower pacing, so a transient provider
	// hiccup recovers without a stampede. Cache-fresh negatives are not
	// retried; their short TTL is the backoff.
	retried := 0
	for _, addr := range pending {
		if retried >= r.retryCap {
			break
		}
		if results[addr] != nil {
			continue
		}
		retried++
		if birth := r.lookup(ctx, addr); birth != nil {
			results[addr] = birth
		}
		sleepCtx(ctx, r.retryPace)
	}

	return results
}

// lookup drives the full chain for one address. Concurrent callers for the
// same address share a single in-flight attempt.
func (r *Resolver) lookup(ctx context.Context, addr string) *time.Time {
	value, _ := r.flight.Do(addr, func() (any, error) {
		// Write the miss up front so overlapping resolutions observe
		// "in progress, unknown for now" instead of re-triggering work.
		r.cache.Put(addr, int64(0))

		birth := r.fetchBirth(ctx, addr)
		var unix int64
		if birth != nil {
			unix = birth.Unix()
		}
		r.cache.Put(addr, unix)
		r.cache.ScheduleFlush()
		return birth, nil
	})
	birth, _ := value.(*time.Time)
	return birth
}

// fetchBirth performs the chained external lookup. Every failure degrades
// to nil; the caller has already written the negative cache entry.
func (r *Resolver) fetchBirth(ctx context.Context, addr string) *time.Time {
	hash, err := r.primary.CreationTx(ctx, addr)
	if err != nil {
		logx.WithContext(ctx).Errorf("wallet: primary creation tx %s: %v", addr, err)
	}
	if hash == "" && r.secondary != nil {
		hash, err = r.secondary.CreationTx(ctx, addr)
		if err != nil {
			logx.WithContext(ctx).Errorf("wallet: secondary creation tx %s: %v", addr, err)
			return nil
		}
	}
	if hash == "" {
		return nil
	}

	blockNumber, err := r.chain.TxBlockNumber(ctx, common.HexToHash(hash))
	if err != nil {
		logx.WithContext(ctx).Errorf("wallet: block for %s: %v", addr, err)
		return nil
	}
	birth, err := r.chain.BlockTime(ctx, blockNumber)
	if err != nil {
		logx.WithContext(ctx).Errorf("wallet: block time for %s: %v", addr, err)
		return nil
	}
	return &birth
}

func normalizeSet(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		normalized := strings.ToLower(strings.TrimSpace(addr))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func unixToTime(unix int64) *time.Time {
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}

// sleepCtx paces outbound requests without outliving the run deadline.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
