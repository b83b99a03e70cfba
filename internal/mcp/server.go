package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/askdocs/askdocs/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document question-answering tools.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server backed by the given engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcp = server.NewMCPServer(
		"askdocs",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
