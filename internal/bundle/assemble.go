package bundle

import (
	"context"
	"fmt"
	"sort"

	"archmap/internal/graph"
)

// Options bounds a bundle request. The four fields fully determine a
// bundle's content for a given graph state.
type Options struct {
	Depth     int
	MaxNodes  int
	MaxChunks int
}

// DefaultOptions are the bounds used when the caller does not override them.
func DefaultOptions() Options {
	return Options{Depth: 2, MaxNodes: 20, MaxChunks: 10}
}

// Assembler builds context bundles from a graph store.
type Assembler struct {
	store graph.Store
}

// NewAssembler returns an assembler reading from st.
func NewAssembler(st graph.Store) *Assembler {
	return &Assembler{store: st}
}

// Build assembles the bundle for the given focus ref ids. Unknown foci fail
// with *graph.NotFoundError before any traversal work; storage errors
// propagate unchanged.
func (a *Assembler) Build(ctx context.Context, refIDs []string, opts Options) (*ContextBundle, error) {
	sg, err := graph.BFSSubgraph(ctx, a.store, refIDs, opts.Depth, opts.MaxNodes)
	if err != nil {
		return nil, err
	}

	member := make(map[string]bool, len(sg.Nodes))
	for _, n := range sg.Nodes {
		member[n.RefID] = true
	}

	chunks, err := a.store.ChunksFor(ctx, sg.RefIDs())
	if err != nil {
		return nil, fmt.Errorf("assemble: collect chunks: %w", err)
	}
	// Stable sort keeps traversal proximity as the tiebreak inside a
	// section.
	sort.SliceStable(chunks, func(i, j int) bool {
		return graph.SectionPriority(chunks[i].Section) < graph.SectionPriority(chunks[j].Section)
	})
	if len(chunks) > opts.MaxChunks {
		chunks = chunks[:opts.MaxChunks]
	}

	symbols, err := a.store.SymbolsFor(ctx, sg.RefIDs())
	if err != nil {
		return nil, fmt.Errorf("assemble: collect symbols: %w", err)
	}

	sync, err := a.store.SyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble: sync status: %w", err)
	}

	all, err := a.store.Constraints(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble: constraints: %w", err)
	}
	constraints := []graph.ConstraintEntry{}
	for _, c := range all {
		for _, id := range c.AppliesTo {
			if member[id] {
				constraints = append(constraints, c)
				break
			}
		}
	}

	b := &ContextBundle{
		Version:     Version,
		Focus:       focusOf(sg.Nodes[0]),
		Graph:       *sg,
		TextChunks:  chunks,
		CodeSymbols: symbols,
		SyncStatus:  sync,
		Constraints: constraints,
		Routes:      []graph.Route{},
	}

	if extra := sg.Nodes[0].Extra; extra != nil {
		if extra.Routes != nil {
			b.Routes = extra.Routes
		}
		b.Tests = extra.Tests
	}

	if len(b.TextChunks) == 0 {
		b.TextChunks = []graph.Chunk{}
		warning := "no documentation chunks found for this subgraph"
		b.Warning = &warning
	}
	if b.CodeSymbols == nil {
		b.CodeSymbols = []graph.CodeSymbol{}
	}
	if b.SyncStatus.Stale == nil {
		b.SyncStatus.Stale = []string{}
	}

	return b, nil
}

// focusOf projects a node into the bundle focus shape, carrying optional
// extra metadata through unchanged.
func focusOf(n graph.Node) Focus {
	f := Focus{RefID: n.RefID, Kind: n.Kind, Summary: n.Summary}
	if n.Extra != nil {
		f.Links = n.Extra.Links
		f.Activity = n.Extra.Activity
	}
	return f
}
