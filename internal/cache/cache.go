// Package cache implements the two-tier lookup cache shared by the
// enrichment resolvers: an in-memory map in front of a durable snapshot
// file that is rewritten wholesale by a debounced background flush.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// DefaultMaxEntries bounds snapshot growth; older entries are dropped
	// on flush.
	DefaultMaxEntries = 5000
	// DefaultFlushDelay is the debounce window between the first
	// ScheduleFlush call and the actual disk write.
	DefaultFlushDelay = 800 * time.Millisecond
)

// Entry is a cached value plus the wall-clock instant it was written.
// The value may itself encode "looked up, found nothing" — staleness is
// decided by the cache's TTL function, not by the entry.
type Entry[V any] struct {
	Value     V     `msgpack:"v"`
	WrittenAt int64 `msgpack:"at"` // unix milliseconds
}

// TTLFunc reports how long a value stays fresh. Different value kinds carry
// different TTLs (a resolved timestamp lives longer than a miss).
type TTLFunc[V any] func(V) time.Duration

// Options configures a Cache.
type Options[V any] struct {
	// Path of the durable snapshot file. Empty disables the durable tier.
	Path string
	// TTL decides freshness per value. Required.
	TTL TTLFunc[V]
	// MaxEntries caps the snapshot size. Zero means DefaultMaxEntries.
	MaxEntries int
	// FlushDelay is the debounce window. Zero means DefaultFlushDelay.
	FlushDelay time.Duration
}

// Cache is a concurrency-safe key→value store with lazy staleness checks.
// Entries are never deleted in memory; they are overwritten on each lookup
// attempt and pruned to the most recent MaxEntries when flushed.
type Cache[V any] struct {
	path       string
	ttl        TTLFunc[V]
	maxEntries int
	flushDelay time.Duration

	mu      sync.RWMutex
	entries map[string]Entry[V]

	flushMu      sync.Mutex
	flushPending bool
	flushTimer   *time.Timer

	nowFn func() time.Time
}

// New constructs a cache. It does not touch the snapshot file; call Load at
// process start to merge persisted entries.
func New[V any](opts Options[V]) *Cache[V] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = DefaultFlushDelay
	}
	return &Cache[V]{
		path:       opts.Path,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		flushDelay: opts.FlushDelay,
		entries:    make(map[string]Entry[V]),
		nowFn:      time.Now,
	}
}

// Get returns the cached value for key and whether it is still fresh.
// A present-but-stale entry returns (value, false) so callers can decide to
// serve it while a refresh is queued.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	age := c.nowFn().Sub(time.UnixMilli(entry.WrittenAt))
	return entry.Value, age < c.ttl(entry.Value)
}

// Has reports whether any entry exists for key, fresh or not.
func (c *Cache[V]) Has(key string) bool {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	return ok
}

// Put overwrites the entry for key and stamps it with the current time.
func (c *Cache[V]) Put(key string, value V) {
	entry := Entry[V]{Value: value, WrittenAt: c.nowFn().UnixMilli()}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Len returns the number of in-memory entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load merges the durable snapshot into memory. Missing snapshot files are
// not an error; in-memory entries that are newer than their persisted
// counterpart win.
func (c *Cache[V]) Load() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: read snapshot %s: %w", c.path, err)
	}
	var persisted map[string]Entry[V]
	if err := msgpack.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("cache: decode snapshot %s: %w", c.path, err)
	}
	c.mu.Lock()
	for key, entry := range persisted {
		if current, ok := c.entries[key]; ok && current.WrittenAt >= entry.WrittenAt {
			continue
		}
		c.entries[key] = entry
	}
	c.mu.Unlock()
	return nil
}

// ScheduleFlush queues a durable flush after the debounce delay. The flush
// is single-flight: while one is pending further calls are no-ops. The
// caller is never blocked; the write happens on a timer goroutine and reads
// whatever the map holds when it fires.
func (c *Cache[V]) ScheduleFlush() {
	if c.path == "" {
		return
	}
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	if c.flushPending {
		return
	}
	c.flushPending = true
	c.flushTimer = time.AfterFunc(c.flushDelay, func() {
		c.flushMu.Lock()
		c.flushPending = false
		c.flushMu.Unlock()
		if err := c.FlushNow(); err != nil {
			logx.Errorf("cache: flush %s: %v", c.path, err)
		}
	})
}

// Stop cancels a pending debounced flush, if any. Entries already in memory
// are unaffected.
func (c *Cache[V]) Stop() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
	c.flushPending = false
}

// FlushNow serializes the most recent MaxEntries entries to the snapshot
// file, replacing it wholesale.
func (c *Cache[V]) FlushNow() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	snapshot := make(map[string]Entry[V], len(c.entries))
	for key, entry := range c.entries {
		snapshot[key] = entry
	}
	c.mu.RUnlock()

	snapshot = pruneOldest(snapshot, c.maxEntries)

	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cache: create snapshot dir: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("cache: replace snapshot: %w", err)
	}
	return nil
}

// pruneOldest keeps the max most recently written entries.
func pruneOldest[V any](entries map[string]Entry[V], max int) map[string]Entry[V] {
	if len(entries) <= max {
		return entries
	}
	type keyed struct {
		key string
		at  int64
	}
	ordered := make([]keyed, 0, len(entries))
	for key, entry := range entries {
		ordered = append(ordered, keyed{key: key, at: entry.WrittenAt})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].at > ordered[j].at })
	kept := make(map[string]Entry[V], max)
	for _, item := range ordered[:max] {
		kept[item.key] = entries[item.key]
	}
	return kept
}
