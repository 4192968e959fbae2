package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"archmap/internal/bundle"
	"archmap/internal/graph"
	"archmap/internal/impact"
)

// Arguments structs

type GetContextArgs struct {
	RefIDs    []string `json:"ref_ids" jsonschema:"required,description:Ref ids of the focus nodes to build context around"`
	Depth     int      `json:"depth" jsonschema:"description:BFS depth (default 2)"`
	MaxNodes  int      `json:"max_nodes" jsonschema:"description:Subgraph node budget (default 20)"`
	MaxChunks int      `json:"max_chunks" jsonschema:"description:Documentation chunk budget (default 10)"`
	NoCache   bool     `json:"no_cache" jsonschema:"description:If true, bypass the bundle cache for this request"`
}

type WhyArgs struct {
	RefID    string `json:"ref_id" jsonschema:"required,description:Ref id of the node to analyze"`
	Depth    int    `json:"depth" jsonschema:"description:Tree depth per direction (default 3)"`
	MaxNodes int    `json:"max_nodes" jsonschema:"description:Node budget per direction (default 50)"`
	Reverse  bool   `json:"reverse" jsonschema:"description:Emphasize dependencies; halves the dependents search depth"`
}

type CacheStatsArgs struct{}

type ClearCacheArgs struct {
	RefID string `json:"ref_id" jsonschema:"description:If set, evict only entries mentioning this ref id (conservative substring match); otherwise clear everything"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_context",
		Description: "Builds a bounded context bundle around one or more architecture nodes: subgraph, documentation, code symbols, constraints, and health metadata",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetContextArgs) (*mcp.CallToolResult, any, error) {
		if len(args.RefIDs) == 0 {
			return errorResult("ref_ids must not be empty"), nil, nil
		}

		opts := bundle.DefaultOptions()
		if args.Depth > 0 {
			opts.Depth = args.Depth
		}
		if args.MaxNodes > 0 {
			opts.MaxNodes = args.MaxNodes
		}
		if args.MaxChunks > 0 {
			opts.MaxChunks = args.MaxChunks
		}

		build := s.oracle.BuildContext
		if args.NoCache {
			build = s.oracle.BuildContextUncached
		}
		b, err := build(ctx, args.RefIDs, opts)
		if err != nil {
			return toolError(err), nil, nil
		}

		etag, err := bundle.ETag(b)
		if err != nil {
			return errorResult(fmt.Sprintf("Fingerprint failed: %v", err)), nil, nil
		}

		payload := struct {
			ETag string `json:"etag"`
			*bundle.ContextBundle
		}{ETag: etag, ContextBundle: b}

		jsonBytes, _ := json.MarshalIndent(payload, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "why",
		Description: "Analyzes a node's impact: what it depends on (upstream), what depends on it (downstream), and blast-radius metrics",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WhyArgs) (*mcp.CallToolResult, any, error) {
		if args.RefID == "" {
			return errorResult("ref_id must not be empty"), nil, nil
		}

		opts := impact.DefaultOptions()
		if args.Depth > 0 {
			opts.Depth = args.Depth
		}
		if args.MaxNodes > 0 {
			opts.MaxNodes = args.MaxNodes
		}
		opts.Reverse = args.Reverse

		res, err := s.oracle.AnalyzeNode(ctx, args.RefID, opts)
		if err != nil {
			return toolError(err), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(res, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "cache_stats",
		Description: "Reports bundle cache health: entries per tier and hit/miss counters",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CacheStatsArgs) (*mcp.CallToolResult, any, error) {
		stats, err := s.oracle.CacheStats(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("Stats failed: %v", err)), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Clears the bundle cache, either fully or for a single ref id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ClearCacheArgs) (*mcp.CallToolResult, any, error) {
		var err error
		if args.RefID != "" {
			err = s.oracle.InvalidateRef(ctx, args.RefID)
		} else {
			err = s.oracle.InvalidateAll(ctx)
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Clear failed: %v", err)), nil, nil
		}
		if args.RefID != "" {
			return textResult(fmt.Sprintf("Cleared cache entries mentioning %q", args.RefID)), nil, nil
		}
		return textResult("Cache cleared"), nil, nil
	})
}

// toolError renders core errors for agent consumption. NotFound keeps its
// suggestions actionable; everything else is surfaced as-is.
func toolError(err error) *mcp.CallToolResult {
	var nf *graph.NotFoundError
	if errors.As(err, &nf) {
		msg := fmt.Sprintf("Node %q not found.", nf.RefID)
		if len(nf.Suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(nf.Suggestions, ", ")
		}
		return errorResult(msg)
	}
	return errorResult(fmt.Sprintf("Query failed: %v", err))
}
