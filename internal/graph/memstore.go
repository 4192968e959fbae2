package graph

import (
	"context"
	"sort"
)

// MemStore is an in-memory Store implementation. It backs the test suites of
// the traversal, bundle, impact, and oracle packages and is handy for dry
// runs against hand-written fixtures.
type MemStore struct {
	Nodes          []Node
	Edges          []Edge
	Chunks         []Chunk
	Symbols        []CodeSymbol
	Sync           SyncStatus
	ConstraintFeed []ConstraintEntry
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) GetNodes(_ context.Context, refIDs []string) (map[string]Node, error) {
	want := make(map[string]bool, len(refIDs))
	for _, id := range refIDs {
		want[id] = true
	}
	out := make(map[string]Node)
	for _, n := range m.Nodes {
		if want[n.RefID] {
			out[n.RefID] = n
		}
	}
	return out, nil
}

func (m *MemStore) OutgoingEdges(_ context.Context, refID string) ([]Edge, error) {
	var out []Edge
	for _, e := range m.Edges {
		if e.Src == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemStore) IncomingEdges(_ context.Context, refID string) ([]Edge, error) {
	var out []Edge
	for _, e := range m.Edges {
		if e.Dst == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemStore) EdgesAmong(_ context.Context, refIDs []string) ([]Edge, error) {
	member := make(map[string]bool, len(refIDs))
	for _, id := range refIDs {
		member[id] = true
	}
	var out []Edge
	for _, e := range m.Edges {
		if member[e.Src] && member[e.Dst] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemStore) AllRefIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		ids = append(ids, n.RefID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) ChunksFor(_ context.Context, refIDs []string) ([]Chunk, error) {
	var out []Chunk
	for _, id := range refIDs {
		for _, c := range m.Chunks {
			if c.RefID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *MemStore) SymbolsFor(_ context.Context, refIDs []string) ([]CodeSymbol, error) {
	var out []CodeSymbol
	for _, id := range refIDs {
		for _, s := range m.Symbols {
			if s.RefID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *MemStore) RefIDsWithChunks(_ context.Context, refIDs []string) (map[string]bool, error) {
	has := make(map[string]bool, len(m.Chunks))
	for _, c := range m.Chunks {
		has[c.RefID] = true
	}
	out := make(map[string]bool, len(refIDs))
	for _, id := range refIDs {
		if has[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *MemStore) SyncStatus(_ context.Context) (SyncStatus, error) {
	return m.Sync, nil
}

func (m *MemStore) Constraints(_ context.Context) ([]ConstraintEntry, error) {
	return m.ConstraintFeed, nil
}
