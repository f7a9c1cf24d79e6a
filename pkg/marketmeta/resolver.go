package marketmeta

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"tradelens-api/internal/cache"
	"tradelens-api/pkg/enrich"
)

// TagCache caches an event's tag slugs. Tag lists are small and stable, so
// a single flat TTL suffices — no positive/negative split.
type TagCache = cache.Cache[[]string]

// NewTagCache builds the event-tag cache.
func NewTagCache(path string, ttl time.Duration) *TagCache {
	return cache.New(cache.Options[[]string]{
		Path: path,
		TTL:  func([]string) time.Duration { return ttl },
	})
}

// Resolver maps market condition ids to category triples. It never returns
// an error; a failed batch or tag lookup leaves its markets on the Other
// fallback.
type Resolver struct {
	client MetadataClient
	cache  *TagCache

	chunkSize int
	workers   int
	pace      time.Duration
}

// NewResolver wires a category resolver.
func NewResolver(client MetadataClient, store *TagCache, cfg *Config) *Resolver {
	resolver := &Resolver{
		client:    client,
		cache:     store,
		chunkSize: defaultChunkSize,
		workers:   defaultWorkers,
		pace:      defaultPace,
	}
	if cfg != nil {
		if cfg.ChunkSize > 0 {
			resolver.chunkSize = cfg.ChunkSize
		}
		if cfg.Workers > 0 {
			resolver.workers = cfg.Workers
		}
		if cfg.Pace > 0 {
			resolver.pace = cfg.Pace
		}
	}
	return resolver
}

// ResolveCategories resolves a category triple for every condition id in
// the input. Every key is present in the result; markets whose lookups fail
// map to Other/Other/[].
func (r *Resolver) ResolveCategories(ctx context.Context, conditionIDs []string) map[string]enrich.Category {
	ids := distinct(conditionIDs)
	results := make(map[string]enrich.Category, len(ids))
	for _, id := range ids {
		results[id] = enrich.Uncategorized()
	}

	for start := 0; start < len(ids); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		r.resolveChunk(ctx, ids[start:end], results)
	}
	return results
}

func (r *Resolver) resolveChunk(ctx context.Context, chunk []string, results map[string]enrich.Category) {
	markets, err := r.client.Markets(ctx, chunk)
	if err != nil {
		logx.WithContext(ctx).Errorf("marketmeta: batch lookup of %d markets: %v", len(chunk), err)
		return
	}

	// Markets without a resolvable event stay uncategorized for this chunk.
	eventByMarket := make(map[string]string, len(markets))
	for _, market := range markets {
		id := strings.TrimSpace(market.ConditionID)
		if id == "" {
			continue
		}
		if eventID := market.EventID(); eventID != "" {
			eventByMarket[id] = eventID
		}
	}

	tagsByEvent := r.fetchTags(ctx, distinctValues(eventByMarket))

	for marketID, eventID := range eventByMarket {
		if _, requested := results[marketID]; !requested {
			continue
		}
		results[marketID] = Classify(tagsByEvent[eventID])
	}
}

// fetchTags resolves each event's tag slugs through the cache, fanning the
// misses out to a small worker pool with fixed pacing between starts.
func (r *Resolver) fetchTags(ctx context.Context, eventIDs []string) map[string][]string {
	tags := make(map[string][]string, len(eventIDs))
	var tagsMu sync.Mutex

	var misses []string
	for _, eventID := range eventIDs {
		if cached, fresh := r.cache.Get(eventID); fresh {
			tags[eventID] = cached
			continue
		}
		misses = append(misses, eventID)
	}
	if len(misses) == 0 {
		return tags
	}

	queue := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for eventID := range queue {
				slugs, err := r.client.EventTags(ctx, eventID)
				if err != nil {
					logx.WithContext(ctx).Errorf("marketmeta: event tags %s: %v", eventID, err)
					slugs = nil
				} else {
					r.cache.Put(eventID, slugs)
					r.cache.ScheduleFlush()
				}
				tagsMu.Lock()
				tags[eventID] = slugs
				tagsMu.Unlock()
			}
		}()
	}
	for _, eventID := range misses {
		queue <- eventID
		pause(ctx, r.pace)
	}
	close(queue)
	wg.Wait()
	return tags
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func distinctValues(m map[string]string) []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, value := range m {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
