package graph

import "context"

// Node is one element of the architecture graph. Nodes are created by the
// loader and are read-only here.
type Node struct {
	RefID   string     `json:"ref_id"`
	Kind    string     `json:"kind"` // domain, feature, service, entity, adr
	Summary string     `json:"summary"`
	Extra   *NodeExtra `json:"extra,omitempty"`
}

// Edge is a directed, typed relationship between two nodes. The same pair
// may be connected by multiple edge kinds.
type Edge struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Kind string `json:"kind"`
}

const (
	NodeKindDomain  = "domain"
	NodeKindFeature = "feature"
	NodeKindService = "service"
	NodeKindEntity  = "entity"
	NodeKindADR     = "adr"
)

const (
	EdgePartOf        = "part_of"
	EdgeTouchesEntity = "touches_entity"
	EdgeUses          = "uses"
	EdgeImplements    = "implements"
	EdgeDependsOn     = "depends_on"
	EdgeTouchesCode   = "touches_code"
)

// edgePriority orders neighbor expansion during traversal. Lower values are
// expanded first, so when the node budget runs out mid-level the structurally
// closest neighbors are the ones admitted.
var edgePriority = map[string]int{
	EdgePartOf:        1,
	EdgeTouchesEntity: 2,
	EdgeUses:          3,
	EdgeImplements:    3,
	EdgeDependsOn:     4,
	EdgeTouchesCode:   5,
}

// EdgePriority returns the expansion priority for an edge kind. Unknown
// kinds sort after all known ones.
func EdgePriority(kind string) int {
	if p, ok := edgePriority[kind]; ok {
		return p
	}
	return len(edgePriority) + 1
}

// NodeExtra carries optional metadata attached to a node by the loader.
// Each field is independently optional; absence is not an error.
type NodeExtra struct {
	Links    []Link     `json:"links,omitempty"`
	Activity *Activity  `json:"activity,omitempty"`
	Routes   []Route    `json:"routes,omitempty"`
	Tests    *TestStats `json:"tests,omitempty"`
}

// Link is an external reference attached to a node (design doc, dashboard).
type Link struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// Activity classifies how actively a node's code has changed recently.
type Activity struct {
	Level         string `json:"level"` // hot, warm, cold
	CommitsLast90 int    `json:"commits_last_90,omitempty"`
	LastCommit    string `json:"last_commit,omitempty"`
}

// Route is an API route extracted by a collaborator and attached to a node.
type Route struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler,omitempty"`
}

// TestStats summarizes the test mapping a collaborator computed for a node.
type TestStats struct {
	TestFiles int `json:"test_files"`
	TestCases int `json:"test_cases"`
}

// Chunk is a documentation fragment bound to a node via its ref id.
type Chunk struct {
	RefID   string `json:"ref_id"`
	Section string `json:"section"` // spec, invariants, constraints, api, tests, other
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// sectionPriority orders chunks inside a bundle.
var sectionPriority = map[string]int{
	"spec":        1,
	"invariants":  2,
	"constraints": 3,
	"api":         4,
	"tests":       5,
	"other":       6,
}

// SectionPriority returns the bundle ordering rank for a chunk section.
func SectionPriority(section string) int {
	if p, ok := sectionPriority[section]; ok {
		return p
	}
	return len(sectionPriority) + 1
}

// CodeSymbol is a source symbol a collaborator bound to a graph node.
type CodeSymbol struct {
	RefID      string `json:"ref_id"`
	FilePath   string `json:"file_path"`
	SymbolName string `json:"symbol_name"`
	Kind       string `json:"kind"`
	LineStart  int    `json:"line_start"`
	LineEnd    int    `json:"line_end"`
}

// ConstraintEntry is a rule violation or requirement produced by the
// external rule engine. It is filtered by subgraph membership here, never
// computed.
type ConstraintEntry struct {
	RuleName    string   `json:"rule_name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"` // deny, require
	AppliesTo   []string `json:"applies_to"`
}

// SyncStatus is the doc-drift feed produced by the sync collaborator,
// surfaced verbatim.
type SyncStatus struct {
	LastReindex string   `json:"last_reindex"`
	Stale       []string `json:"stale"`
}

// Store is the read-only query interface over the graph tables. The SQLite
// implementation lives in internal/store; MemStore backs tests.
type Store interface {
	// GetNodes returns the nodes for the given ref ids; absent ids are
	// simply missing from the result map.
	GetNodes(ctx context.Context, refIDs []string) (map[string]Node, error)
	// OutgoingEdges returns edges whose src is refID.
	OutgoingEdges(ctx context.Context, refID string) ([]Edge, error)
	// IncomingEdges returns edges whose dst is refID.
	IncomingEdges(ctx context.Context, refID string) ([]Edge, error)
	// EdgesAmong returns every edge with both endpoints in refIDs.
	EdgesAmong(ctx context.Context, refIDs []string) ([]Edge, error)
	// AllRefIDs returns every node ref id, used for suggestion ranking.
	AllRefIDs(ctx context.Context) ([]string, error)
	// ChunksFor returns documentation chunks for the given ref ids, grouped
	// in the order the ids are given.
	ChunksFor(ctx context.Context, refIDs []string) ([]Chunk, error)
	// SymbolsFor returns code symbols bound to the given ref ids.
	SymbolsFor(ctx context.Context, refIDs []string) ([]CodeSymbol, error)
	// RefIDsWithChunks reports which of the given ref ids have at least one
	// documentation chunk.
	RefIDsWithChunks(ctx context.Context, refIDs []string) (map[string]bool, error)
	// SyncStatus returns the external drift feed. An empty feed is valid.
	SyncStatus(ctx context.Context) (SyncStatus, error)
	// Constraints returns the external rule-engine feed.
	Constraints(ctx context.Context) ([]ConstraintEntry, error)
}
