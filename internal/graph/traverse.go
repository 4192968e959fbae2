package graph

import (
	"context"
	"fmt"
	"sort"
)

// Subgraph is the bounded neighborhood a traversal returns. Nodes are in
// admission order (foci first, then closest neighbors); edges cover every
// store edge whose endpoints both made it into the node set.
type Subgraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// RefIDs returns the node ids of the subgraph in admission order.
func (sg *Subgraph) RefIDs() []string {
	ids := make([]string, len(sg.Nodes))
	for i, n := range sg.Nodes {
		ids[i] = n.RefID
	}
	return ids
}

// BFSSubgraph expands a bounded subgraph around the focus nodes, following
// edges in both directions. Expansion proceeds level by level up to depth
// levels; neighbors at each level are admitted in edge-priority order, so
// when maxNodes is hit mid-level the truncation is deterministic and biased
// toward structurally close neighbors.
//
// Every focus id must exist; an unknown id fails with a *NotFoundError
// carrying ranked suggestions.
func BFSSubgraph(ctx context.Context, st Store, focus []string, depth, maxNodes int) (*Subgraph, error) {
	if len(focus) == 0 {
		return nil, fmt.Errorf("traverse: no focus ref ids given")
	}

	focusNodes, err := st.GetNodes(ctx, focus)
	if err != nil {
		return nil, fmt.Errorf("traverse: fetch focus nodes: %w", err)
	}
	for _, id := range focus {
		if _, ok := focusNodes[id]; !ok {
			known, kerr := st.AllRefIDs(ctx)
			if kerr != nil {
				return nil, fmt.Errorf("traverse: list ref ids for suggestions: %w", kerr)
			}
			return nil, NewNotFoundError(id, known)
		}
	}

	// Seed every focus into visited up front so duplicates across foci
	// collapse. Foci are always admitted, even past the node budget.
	visited := make(map[string]bool, maxNodes)
	var order []string
	var frontier []string
	for _, id := range focus {
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)
		frontier = append(frontier, id)
	}

	for level := 0; level < depth && len(frontier) > 0 && len(visited) < maxNodes; level++ {
		candidates, err := levelCandidates(ctx, st, frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, c := range candidates {
			if len(visited) >= maxNodes {
				break
			}
			if visited[c.refID] {
				continue
			}
			visited[c.refID] = true
			order = append(order, c.refID)
			next = append(next, c.refID)
		}
		frontier = next
	}

	nodes, err := st.GetNodes(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("traverse: fetch subgraph nodes: %w", err)
	}

	sg := &Subgraph{}
	for _, id := range order {
		n, ok := nodes[id]
		if !ok {
			// Dangling edge endpoint; the loader owns referential
			// integrity, so just leave it out of the result.
			continue
		}
		sg.Nodes = append(sg.Nodes, n)
	}

	edges, err := st.EdgesAmong(ctx, sg.RefIDs())
	if err != nil {
		return nil, fmt.Errorf("traverse: fetch subgraph edges: %w", err)
	}
	sg.Edges = dedupeEdges(edges)
	return sg, nil
}

// candidate is a neighbor discovered while expanding one BFS level.
type candidate struct {
	refID    string
	priority int
}

// levelCandidates collects the neighbors of an entire frontier, both edge
// directions, ordered by edge priority then ref id.
func levelCandidates(ctx context.Context, st Store, frontier []string) ([]candidate, error) {
	var out []candidate
	for _, id := range frontier {
		outgoing, err := st.OutgoingEdges(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("traverse: outgoing edges of %s: %w", id, err)
		}
		for _, e := range outgoing {
			out = append(out, candidate{refID: e.Dst, priority: EdgePriority(e.Kind)})
		}

		incoming, err := st.IncomingEdges(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("traverse: incoming edges of %s: %w", id, err)
		}
		for _, e := range incoming {
			out = append(out, candidate{refID: e.Src, priority: EdgePriority(e.Kind)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].refID < out[j].refID
	})
	return out, nil
}

// dedupeEdges drops repeated (src, dst, kind) triples and fixes a
// deterministic order for the wire format.
func dedupeEdges(edges []Edge) []Edge {
	seen := make(map[Edge]bool, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		if out[i].Dst != out[j].Dst {
			return out[i].Dst < out[j].Dst
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
