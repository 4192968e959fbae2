// Package impact answers "why does this node matter": what it depends on
// (upstream, outgoing edges) and what depends on it (downstream, incoming
// edges), with blast-radius metrics over the downstream set. It reads the
// same graph store as bundle assembly but never touches the bundle cache.
package impact

import (
	"context"
	"fmt"
	"sort"

	"archmap/internal/graph"
)

// TreeNode is one node of a dependency tree. Immutable once returned.
type TreeNode struct {
	RefID    string      `json:"ref_id"`
	Kind     string      `json:"kind"`
	Summary  string      `json:"summary"`
	EdgeKind string      `json:"edge_kind"`
	Children []*TreeNode `json:"children"`
}

// ImpactSummary aggregates the downstream tree. Coverage over an empty
// downstream set reports 100%, since nothing is undocumented.
type ImpactSummary struct {
	DownstreamDirect     int     `json:"downstream_direct"`
	DownstreamTransitive int     `json:"downstream_transitive"`
	DocCoveragePct       float64 `json:"doc_coverage_pct"`
	StaleCount           int     `json:"stale_count"`
}

// WhyResult is the full bidirectional analysis for one node. The start node
// itself appears in neither tree.
type WhyResult struct {
	RefID      string        `json:"ref_id"`
	Kind       string        `json:"kind"`
	Summary    string        `json:"summary"`
	Upstream   []*TreeNode   `json:"upstream"`
	Downstream []*TreeNode   `json:"downstream"`
	Impact     ImpactSummary `json:"impact"`
}

// Options bounds an analysis. Reverse mode keeps the full upstream depth but
// halves downstream: it exists to emphasize dependencies without paying for
// a deep dependents search.
type Options struct {
	Depth    int
	MaxNodes int
	Reverse  bool
}

// DefaultOptions are the bounds used when the caller does not override them.
func DefaultOptions() Options {
	return Options{Depth: 3, MaxNodes: 50}
}

// Analyzer runs why analyses against a graph store.
type Analyzer struct {
	store graph.Store
}

// NewAnalyzer returns an analyzer reading from st.
func NewAnalyzer(st graph.Store) *Analyzer {
	return &Analyzer{store: st}
}

// AnalyzeNode builds the upstream and downstream trees for refID and the
// downstream metrics. Unknown ids fail with *graph.NotFoundError carrying
// suggestions.
func (a *Analyzer) AnalyzeNode(ctx context.Context, refID string, opts Options) (*WhyResult, error) {
	nodes, err := a.store.GetNodes(ctx, []string{refID})
	if err != nil {
		return nil, fmt.Errorf("why: fetch start node: %w", err)
	}
	start, ok := nodes[refID]
	if !ok {
		known, kerr := a.store.AllRefIDs(ctx)
		if kerr != nil {
			return nil, fmt.Errorf("why: list ref ids for suggestions: %w", kerr)
		}
		return nil, graph.NewNotFoundError(refID, known)
	}

	downDepth := opts.Depth
	if opts.Reverse {
		downDepth = opts.Depth / 2
		if downDepth < 1 {
			downDepth = 1
		}
	}

	// The two directions never share visitation state.
	upstream, _, err := a.buildTree(ctx, refID, opts.Depth, opts.MaxNodes, directionUpstream)
	if err != nil {
		return nil, err
	}
	downstream, downIDs, err := a.buildTree(ctx, refID, downDepth, opts.MaxNodes, directionDownstream)
	if err != nil {
		return nil, err
	}

	impact, err := a.summarize(ctx, downstream, downIDs)
	if err != nil {
		return nil, err
	}

	return &WhyResult{
		RefID:      start.RefID,
		Kind:       start.Kind,
		Summary:    start.Summary,
		Upstream:   upstream,
		Downstream: downstream,
		Impact:     impact,
	}, nil
}

type direction int

const (
	directionUpstream direction = iota
	directionDownstream
)

// arenaNode is the flat construction form of a TreeNode: parent/child links
// are indices, so no recursion is needed while the tree grows.
type arenaNode struct {
	refID    string
	edgeKind string
	children []int
}

// buildTree runs one direction's parent-tracked BFS and materializes the
// public tree view from the arena. The start node seeds the visited set but
// is never emitted. Returns the roots and all ref ids in the tree.
func (a *Analyzer) buildTree(ctx context.Context, start string, depth, maxNodes int, dir direction) ([]*TreeNode, []string, error) {
	visited := map[string]bool{start: true}
	var arena []arenaNode
	var roots []int

	// frontier holds arena indices; -1 stands for the start node.
	frontier := []int{-1}

	for level := 0; level < depth && len(frontier) > 0 && len(arena) < maxNodes; level++ {
		var next []int
		for _, idx := range frontier {
			from := start
			if idx >= 0 {
				from = arena[idx].refID
			}

			neighbors, err := a.neighbors(ctx, from, dir)
			if err != nil {
				return nil, nil, err
			}
			for _, nb := range neighbors {
				if len(arena) >= maxNodes {
					break
				}
				if visited[nb.refID] {
					continue
				}
				visited[nb.refID] = true
				arena = append(arena, arenaNode{refID: nb.refID, edgeKind: nb.edgeKind})
				child := len(arena) - 1
				if idx < 0 {
					roots = append(roots, child)
				} else {
					arena[idx].children = append(arena[idx].children, child)
				}
				next = append(next, child)
			}
		}
		frontier = next
	}

	ids := make([]string, len(arena))
	for i, an := range arena {
		ids[i] = an.refID
	}

	nodes, err := a.store.GetNodes(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("why: fetch tree nodes: %w", err)
	}

	// Parents precede children in the arena, so one forward pass creates
	// every TreeNode and a second one links them.
	out := make([]*TreeNode, len(arena))
	for i, an := range arena {
		tn := &TreeNode{RefID: an.refID, EdgeKind: an.edgeKind, Children: []*TreeNode{}}
		if n, ok := nodes[an.refID]; ok {
			tn.Kind = n.Kind
			tn.Summary = n.Summary
		}
		out[i] = tn
	}
	for i, an := range arena {
		for _, c := range an.children {
			out[i].Children = append(out[i].Children, out[c])
		}
	}

	tree := []*TreeNode{}
	for _, r := range roots {
		tree = append(tree, out[r])
	}
	return tree, ids, nil
}

type neighbor struct {
	refID    string
	edgeKind string
}

// neighbors lists the next hop from a node: edge targets upstream, edge
// sources downstream, in priority order for deterministic trees.
func (a *Analyzer) neighbors(ctx context.Context, refID string, dir direction) ([]neighbor, error) {
	var out []neighbor
	if dir == directionUpstream {
		edges, err := a.store.OutgoingEdges(ctx, refID)
		if err != nil {
			return nil, fmt.Errorf("why: outgoing edges of %s: %w", refID, err)
		}
		for _, e := range edges {
			out = append(out, neighbor{refID: e.Dst, edgeKind: e.Kind})
		}
	} else {
		edges, err := a.store.IncomingEdges(ctx, refID)
		if err != nil {
			return nil, fmt.Errorf("why: incoming edges of %s: %w", refID, err)
		}
		for _, e := range edges {
			out = append(out, neighbor{refID: e.Src, edgeKind: e.Kind})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := graph.EdgePriority(out[i].edgeKind), graph.EdgePriority(out[j].edgeKind)
		if pi != pj {
			return pi < pj
		}
		return out[i].refID < out[j].refID
	})
	return out, nil
}

// summarize computes the downstream metrics.
func (a *Analyzer) summarize(ctx context.Context, downstream []*TreeNode, downIDs []string) (ImpactSummary, error) {
	s := ImpactSummary{
		DownstreamDirect:     len(downstream),
		DownstreamTransitive: len(downIDs) - len(downstream),
	}

	if len(downIDs) == 0 {
		s.DocCoveragePct = 100.0
		return s, nil
	}

	documented, err := a.store.RefIDsWithChunks(ctx, downIDs)
	if err != nil {
		return s, fmt.Errorf("why: doc coverage: %w", err)
	}
	s.DocCoveragePct = float64(len(documented)) / float64(len(downIDs)) * 100.0

	sync, err := a.store.SyncStatus(ctx)
	if err != nil {
		return s, fmt.Errorf("why: sync status: %w", err)
	}
	staleSet := make(map[string]bool, len(sync.Stale))
	for _, id := range sync.Stale {
		staleSet[id] = true
	}
	for _, id := range downIDs {
		if staleSet[id] {
			s.StaleCount++
		}
	}
	return s, nil
}
