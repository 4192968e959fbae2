package impact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmap/internal/graph"
)

// diamondStore builds:
//
//	api --uses--> core --depends_on--> db
//	worker --uses--> core
//	core --touches_entity--> orders
func diamondStore() *graph.MemStore {
	return &graph.MemStore{
		Nodes: []graph.Node{
			{RefID: "api", Kind: graph.NodeKindService, Summary: "API"},
			{RefID: "worker", Kind: graph.NodeKindService, Summary: "Worker"},
			{RefID: "core", Kind: graph.NodeKindService, Summary: "Core"},
			{RefID: "db", Kind: graph.NodeKindEntity, Summary: "Database"},
			{RefID: "orders", Kind: graph.NodeKindEntity, Summary: "Orders"},
		},
		Edges: []graph.Edge{
			{Src: "api", Dst: "core", Kind: graph.EdgeUses},
			{Src: "worker", Dst: "core", Kind: graph.EdgeUses},
			{Src: "core", Dst: "db", Kind: graph.EdgeDependsOn},
			{Src: "core", Dst: "orders", Kind: graph.EdgeTouchesEntity},
		},
		Chunks: []graph.Chunk{
			{RefID: "api", Section: "spec", Heading: "API", Content: "doc"},
		},
		Sync: graph.SyncStatus{Stale: []string{"worker"}},
	}
}

func TestAnalyzeNodeDirections(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	res, err := a.AnalyzeNode(context.Background(), "core", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "core", res.RefID)

	// Upstream = what core depends on, via outgoing edges. touches_entity
	// outranks depends_on, so orders is first.
	require.Len(t, res.Upstream, 2)
	assert.Equal(t, "orders", res.Upstream[0].RefID)
	assert.Equal(t, graph.EdgeTouchesEntity, res.Upstream[0].EdgeKind)
	assert.Equal(t, "db", res.Upstream[1].RefID)

	// Downstream = what depends on core, via incoming edges.
	require.Len(t, res.Downstream, 2)
	assert.Equal(t, "api", res.Downstream[0].RefID)
	assert.Equal(t, "worker", res.Downstream[1].RefID)

	assert.Equal(t, 2, res.Impact.DownstreamDirect)
	assert.Equal(t, 0, res.Impact.DownstreamTransitive)
	assert.InDelta(t, 50.0, res.Impact.DocCoveragePct, 0.001, "api has a chunk, worker does not")
	assert.Equal(t, 1, res.Impact.StaleCount)
}

func TestAnalyzeNodeStartExcluded(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	res, err := a.AnalyzeNode(context.Background(), "core", DefaultOptions())
	require.NoError(t, err)

	var walk func(nodes []*TreeNode)
	walk = func(nodes []*TreeNode) {
		for _, n := range nodes {
			require.NotEqual(t, "core", n.RefID, "start node must not appear in any tree")
			walk(n.Children)
		}
	}
	walk(res.Upstream)
	walk(res.Downstream)
}

func TestAnalyzeNodeNoDependents(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	// api has no incoming edges.
	res, err := a.AnalyzeNode(context.Background(), "api", DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, res.Downstream)
	assert.Equal(t, 0, res.Impact.DownstreamDirect)
	assert.Equal(t, 100.0, res.Impact.DocCoveragePct)
	assert.Equal(t, 0, res.Impact.StaleCount)
}

func TestAnalyzeNodeTransitive(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	// db's dependents: core directly, then api and worker through core.
	res, err := a.AnalyzeNode(context.Background(), "db", DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Downstream, 1)
	assert.Equal(t, "core", res.Downstream[0].RefID)
	assert.Len(t, res.Downstream[0].Children, 2)
	assert.Equal(t, 1, res.Impact.DownstreamDirect)
	assert.Equal(t, 2, res.Impact.DownstreamTransitive)
}

func TestAnalyzeNodeReverseHalvesDownstreamDepth(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	opts := DefaultOptions()
	opts.Depth = 2
	opts.Reverse = true

	// Downstream depth becomes 1, so api/worker behind core stay out.
	res, err := a.AnalyzeNode(context.Background(), "db", opts)
	require.NoError(t, err)

	require.Len(t, res.Downstream, 1)
	assert.Empty(t, res.Downstream[0].Children)
	assert.Equal(t, 1, res.Impact.DownstreamDirect)
	assert.Equal(t, 0, res.Impact.DownstreamTransitive)

	// Upstream keeps the full depth: db has none, so check from api.
	res, err = a.AnalyzeNode(context.Background(), "api", opts)
	require.NoError(t, err)
	require.Len(t, res.Upstream, 1)
	assert.Len(t, res.Upstream[0].Children, 2, "upstream still reaches depth 2")
}

func TestAnalyzeNodeCycleTerminates(t *testing.T) {
	st := &graph.MemStore{
		Nodes: []graph.Node{{RefID: "a"}, {RefID: "b"}},
		Edges: []graph.Edge{
			{Src: "a", Dst: "b", Kind: graph.EdgeUses},
			{Src: "b", Dst: "a", Kind: graph.EdgeUses},
		},
	}
	a := NewAnalyzer(st)

	res, err := a.AnalyzeNode(context.Background(), "a", Options{Depth: 50, MaxNodes: 50})
	require.NoError(t, err)
	require.Len(t, res.Upstream, 1)
	assert.Empty(t, res.Upstream[0].Children, "visited set stops the cycle")
}

func TestAnalyzeNodeMaxNodesBound(t *testing.T) {
	st := &graph.MemStore{Nodes: []graph.Node{{RefID: "hub"}}}
	for i := 0; i < 100; i++ {
		id := string(rune('a'+i%26)) + "-caller-" + string(rune('0'+i%10)) + string(rune('0'+i/10))
		st.Nodes = append(st.Nodes, graph.Node{RefID: id})
		st.Edges = append(st.Edges, graph.Edge{Src: id, Dst: "hub", Kind: graph.EdgeUses})
	}
	a := NewAnalyzer(st)

	res, err := a.AnalyzeNode(context.Background(), "hub", Options{Depth: 3, MaxNodes: 10})
	require.NoError(t, err)
	assert.Len(t, res.Downstream, 10)
}

func TestAnalyzeNodeNotFound(t *testing.T) {
	a := NewAnalyzer(diamondStore())

	_, err := a.AnalyzeNode(context.Background(), "cor", DefaultOptions())
	require.Error(t, err)

	var nf *graph.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, nf.Suggestions, "core")
}
