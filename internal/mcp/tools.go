package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Ask a question over the indexed documents. Returns a grounded answer with confidence and source attribution."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithString("username",
		mcp.Required(),
		mcp.Description("User on whose behalf to answer; controls which private documents are visible"),
	),
	mcp.WithString("session_id",
		mcp.Description("Chat session to continue; omit to start a new session"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantically search the indexed documents without generating an answer. Returns the most relevant chunks."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithString("username",
		mcp.Required(),
		mcp.Description("User on whose behalf to search; controls which private documents are visible"),
	),
)
