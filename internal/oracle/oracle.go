// Package oracle wires the context core together: the cache-wrapped bundle
// assembler, the cache-bypassing impact analyzer, and the invalidation
// signals that keep served bundles consistent with the graph on disk.
package oracle

import (
	"context"
	"log/slog"

	"archmap/internal/bundle"
	"archmap/internal/cache"
	"archmap/internal/graph"
	"archmap/internal/impact"
	"archmap/util"
)

// Signals produces the current source mtimes a lookup should be checked
// against. A zero field means no signal for that source.
type Signals func() cache.Mtimes

// FileSignals derives mtime signals from the graph database file and a
// documentation directory. Either path may be empty.
func FileSignals(graphDB, docsDir string) Signals {
	return func() cache.Mtimes {
		mt := cache.Mtimes{Graph: util.FileMtime(graphDB)}
		if docsDir != "" {
			// A failed walk just means no docs signal this lookup;
			// the cache then skips the docs freshness check.
			docs, err := util.LatestMtime(docsDir)
			if err == nil {
				mt.Docs = docs
			}
		}
		return mt
	}
}

// Oracle is the façade the CLI and MCP server call.
type Oracle struct {
	store    graph.Store
	cache    *cache.Cache
	asm      *bundle.Assembler
	analyzer *impact.Analyzer
	signals  Signals
	log      *slog.Logger
}

// Config collects the oracle's collaborators. Store and Cache are required;
// a nil Signals disables freshness checking (every cached entry is served).
type Config struct {
	Store   graph.Store
	Cache   *cache.Cache
	Signals Signals
	Log     *slog.Logger
}

// New builds an oracle from cfg.
func New(cfg Config) *Oracle {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	signals := cfg.Signals
	if signals == nil {
		signals = func() cache.Mtimes { return cache.Mtimes{} }
	}
	return &Oracle{
		store:    cfg.Store,
		cache:    cfg.Cache,
		asm:      bundle.NewAssembler(cfg.Store),
		analyzer: impact.NewAnalyzer(cfg.Store),
		signals:  signals,
		log:      log,
	}
}

// BuildContext returns the bundle for the given foci, consulting both cache
// tiers against the current mtime signals before assembling.
func (o *Oracle) BuildContext(ctx context.Context, refIDs []string, opts bundle.Options) (*bundle.ContextBundle, error) {
	key := cache.NewKey(refIDs, opts)
	mt := o.signals()

	if b := o.cache.Get(ctx, key, mt); b != nil {
		o.log.Debug("bundle served from cache", "key", key.RefID, "depth", opts.Depth)
		return b, nil
	}

	b, err := o.asm.Build(ctx, refIDs, opts)
	if err != nil {
		return nil, err
	}

	// A failed cache write only costs the next request a recompute.
	if err := o.cache.Put(ctx, key, b, mt); err != nil {
		o.log.Warn("bundle cache write failed", "key", key.RefID, "error", err)
	}
	return b, nil
}

// BuildContextUncached assembles a bundle without reading or writing the
// cache, for callers that need a guaranteed-fresh view.
func (o *Oracle) BuildContextUncached(ctx context.Context, refIDs []string, opts bundle.Options) (*bundle.ContextBundle, error) {
	return o.asm.Build(ctx, refIDs, opts)
}

// AnalyzeNode runs a why analysis. Impact analysis always bypasses the
// bundle cache and reads the store directly.
func (o *Oracle) AnalyzeNode(ctx context.Context, refID string, opts impact.Options) (*impact.WhyResult, error) {
	return o.analyzer.AnalyzeNode(ctx, refID, opts)
}

// InvalidateAll clears both cache tiers. Called after a full reindex; once
// it returns, no get observes a pre-clear bundle.
func (o *Oracle) InvalidateAll(ctx context.Context) error {
	o.log.Info("clearing bundle cache")
	return o.cache.Clear(ctx)
}

// InvalidateRef evicts cached bundles mentioning refID. May conservatively
// evict more than strictly necessary, never less.
func (o *Oracle) InvalidateRef(ctx context.Context, refID string) error {
	return o.cache.ClearRef(ctx, refID)
}

// CacheStats reports cache health.
func (o *Oracle) CacheStats(ctx context.Context) (cache.Stats, error) {
	return o.cache.Stats(ctx)
}
