// Package cache provides the two-tier bundle cache: a process-local L1 map
// and a persistent SQLite L2. Both tiers share one key space and one
// invalidation rule: an entry is stale as soon as either of its recorded
// source mtimes is strictly older than the caller's observed signal.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"archmap/internal/bundle"
)

// Key identifies a bundle request. The four parameters fully determine a
// bundle's inputs for a given graph state.
type Key struct {
	RefID     string
	Depth     int
	MaxNodes  int
	MaxChunks int
}

// NewKey derives the cache key for a request. Multiple foci join with ","
// in caller order: seed order biases truncation, so reordered foci are a
// different request.
func NewKey(refIDs []string, opts bundle.Options) Key {
	return Key{
		RefID:     strings.Join(refIDs, ","),
		Depth:     opts.Depth,
		MaxNodes:  opts.MaxNodes,
		MaxChunks: opts.MaxChunks,
	}
}

// Mtimes are the freshness signals observed by the caller, in Unix
// nanoseconds. A zero field means the caller has no signal for that source
// and the check is skipped.
type Mtimes struct {
	Graph int64
	Docs  int64
}

// stale reports whether an entry written under stored must not be served to
// a caller observing current.
func stale(stored, current Mtimes) bool {
	if current.Graph != 0 && stored.Graph < current.Graph {
		return true
	}
	if current.Docs != 0 && stored.Docs < current.Docs {
		return true
	}
	return false
}

// entry is a cached bundle with its write-time freshness signals.
type entry struct {
	bundle    *bundle.ContextBundle
	createdAt time.Time
	mtimes    Mtimes
}

// Stats is a point-in-time view of cache health.
type Stats struct {
	L1Entries int   `json:"l1_entries"`
	L2Entries int   `json:"l2_entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// Cache is the two-tier cache. The L2 tier is optional; with a nil L2 the
// cache is purely process-local.
type Cache struct {
	l1  *l1
	l2  *l2
	log *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New opens the two-tier cache. l2Path is the persistent tier's database
// file; an empty path disables L2.
func New(l2Path string, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{l1: newL1(), log: log}
	if l2Path != "" {
		tier, err := openL2(l2Path)
		if err != nil {
			return nil, err
		}
		c.l2 = tier
	}
	return c, nil
}

// Close releases the persistent tier.
func (c *Cache) Close() error {
	if c.l2 == nil {
		return nil
	}
	return c.l2.close()
}

// Get returns the cached bundle for key, or nil on miss. Entries older than
// the supplied mtimes are deleted and reported as misses; stale data is
// never served. L2 read failures degrade to a miss, which only costs a
// recompute.
func (c *Cache) Get(ctx context.Context, key Key, mt Mtimes) *bundle.ContextBundle {
	if b := c.l1.get(key, mt); b != nil {
		c.hits.Add(1)
		return b
	}

	if c.l2 != nil {
		e, err := c.l2.get(ctx, key, mt)
		if err != nil {
			c.log.Warn("l2 cache read failed, treating as miss", "key", key.RefID, "error", err)
		} else if e != nil {
			// Promote so the next hit is memory-only.
			c.l1.put(key, *e)
			c.hits.Add(1)
			return e.bundle
		}
	}

	c.misses.Add(1)
	return nil
}

// Put stores the bundle in both tiers, overwriting any previous entry.
func (c *Cache) Put(ctx context.Context, key Key, b *bundle.ContextBundle, mt Mtimes) error {
	e := entry{bundle: b, createdAt: time.Now(), mtimes: mt}
	c.l1.put(key, e)
	if c.l2 != nil {
		if err := c.l2.put(ctx, key, e); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties both tiers. Called on every full reindex; afterwards every
// get misses until repopulated.
func (c *Cache) Clear(ctx context.Context) error {
	c.l1.clear()
	if c.l2 != nil {
		return c.l2.clear(ctx)
	}
	return nil
}

// ClearRef evicts every entry whose key mentions refID. Substring matching
// is deliberately conservative: it may evict entries for other refs that
// contain refID, but it never leaves a stale entry behind.
func (c *Cache) ClearRef(ctx context.Context, refID string) error {
	c.l1.clearRef(refID)
	if c.l2 != nil {
		return c.l2.clearRef(ctx, refID)
	}
	return nil
}

// Stats reports entry counts per tier and hit/miss counters.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	s := Stats{
		L1Entries: c.l1.len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
	if c.l2 != nil {
		n, err := c.l2.count(ctx)
		if err != nil {
			return s, err
		}
		s.L2Entries = n
	}
	return s, nil
}
