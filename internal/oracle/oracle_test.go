package oracle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmap/internal/bundle"
	"archmap/internal/cache"
	"archmap/internal/graph"
	"archmap/internal/impact"
)

func testStore() *graph.MemStore {
	return &graph.MemStore{
		Nodes: []graph.Node{
			{RefID: "billing", Kind: graph.NodeKindService, Summary: "Billing"},
			{RefID: "ledger", Kind: graph.NodeKindService, Summary: "Ledger"},
		},
		Edges: []graph.Edge{
			{Src: "billing", Dst: "ledger", Kind: graph.EdgeDependsOn},
		},
		Chunks: []graph.Chunk{
			{RefID: "billing", Section: "spec", Heading: "Billing", Content: "doc"},
		},
	}
}

func testOracle(t *testing.T, signals Signals) *Oracle {
	t.Helper()
	c, err := cache.New(filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return New(Config{Store: testStore(), Cache: c, Signals: signals})
}

func TestBuildContextPopulatesCache(t *testing.T) {
	mt := cache.Mtimes{Graph: 100, Docs: 100}
	o := testOracle(t, func() cache.Mtimes { return mt })
	ctx := context.Background()

	b1, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)
	b2, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	e1, err := bundle.ETag(b1)
	require.NoError(t, err)
	e2, err := bundle.ETag(b2)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestBuildContextRecomputesAfterClear(t *testing.T) {
	mt := cache.Mtimes{Graph: 100, Docs: 100}
	o := testOracle(t, func() cache.Mtimes { return mt })
	ctx := context.Background()

	b1, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, o.InvalidateAll(ctx))

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.L1Entries)
	require.Equal(t, 0, stats.L2Entries)

	// Recomputed, and with unchanged data the content matches.
	b2, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	stats, err = o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Misses, "clear forces a recompute")

	e1, _ := bundle.ETag(b1)
	e2, _ := bundle.ETag(b2)
	assert.Equal(t, e1, e2)
}

func TestBuildContextInvalidatesOnNewerGraph(t *testing.T) {
	mt := cache.Mtimes{Graph: 100, Docs: 100}
	o := testOracle(t, func() cache.Mtimes { return mt })
	ctx := context.Background()

	_, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	// Reindex happened: the graph source is newer than the cached entry.
	mt.Graph = 101
	_, err = o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(0), stats.Hits)
}

func TestAnalyzeNodeBypassesCache(t *testing.T) {
	o := testOracle(t, nil)
	ctx := context.Background()

	res, err := o.AnalyzeNode(ctx, "ledger", impact.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Downstream, 1)
	assert.Equal(t, "billing", res.Downstream[0].RefID)

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Hits+stats.Misses, "why requests never touch the cache")
}

func TestInvalidateRef(t *testing.T) {
	o := testOracle(t, nil)
	ctx := context.Background()

	_, err := o.BuildContext(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)
	_, err = o.BuildContext(ctx, []string{"ledger"}, bundle.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, o.InvalidateRef(ctx, "billing"))

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.L1Entries)
	assert.Equal(t, 1, stats.L2Entries)
}

func TestBuildContextUncachedLeavesCacheAlone(t *testing.T) {
	o := testOracle(t, nil)
	ctx := context.Background()

	_, err := o.BuildContextUncached(ctx, []string{"billing"}, bundle.DefaultOptions())
	require.NoError(t, err)

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.L1Entries)
	assert.Equal(t, 0, stats.L2Entries)
}
