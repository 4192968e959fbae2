// Package server exposes the context oracle over the Model Context
// Protocol, so agents can request context bundles and impact analyses
// directly.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"archmap/internal/oracle"
)

// Version is reported in the MCP handshake.
const Version = "0.3.0"

// Server wires the oracle into an MCP server over stdio.
type Server struct {
	oracle    *oracle.Oracle
	mcpServer *mcp.Server
	log       *slog.Logger
}

// New creates the server and registers its tools and resources.
func New(o *oracle.Oracle, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		oracle: o,
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "archmap",
			Version: Version,
		}, nil),
		log: log,
	}

	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("archmap MCP server starting", "version", Version)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
