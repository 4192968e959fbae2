// Package bundle assembles versioned context bundles: a bounded subgraph
// plus the documentation, symbols, and health metadata cross-referenced to
// it. Assembly is a pure read; nothing here writes to the graph.
package bundle

import "archmap/internal/graph"

// Version is the bundle schema version. Bump on any wire-shape change so
// consumers can detect evolution.
const Version = 1

// Focus describes the primary node a bundle was requested for. Links and
// activity appear only when the source node carries that metadata.
type Focus struct {
	RefID    string          `json:"ref_id"`
	Kind     string          `json:"kind"`
	Summary  string          `json:"summary"`
	Links    []graph.Link    `json:"links,omitempty"`
	Activity *graph.Activity `json:"activity,omitempty"`
}

// ContextBundle is the versioned response object. It is immutable once
// returned. Constraints and routes are always present, possibly empty;
// tests and warning are null when absent.
type ContextBundle struct {
	Version     int                     `json:"version"`
	Focus       Focus                   `json:"focus"`
	Graph       graph.Subgraph          `json:"graph"`
	TextChunks  []graph.Chunk           `json:"text_chunks"`
	CodeSymbols []graph.CodeSymbol      `json:"code_symbols"`
	SyncStatus  graph.SyncStatus        `json:"sync_status"`
	Constraints []graph.ConstraintEntry `json:"constraints"`
	Routes      []graph.Route           `json:"routes"`
	Tests       *graph.TestStats        `json:"tests"`
	Warning     *string                 `json:"warning"`
}
