package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/vectordb"
)

func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: username"), nil
	}

	ans, err := s.engine.Ask(ctx, engine.QueryRequest{
		Query:     query,
		Username:  username,
		SessionID: request.GetString("session_id", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	username, err := request.RequireString("username")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: username"), nil
	}

	results, err := s.engine.Search(ctx, engine.QueryRequest{Query: query, Username: username})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The index may be empty; upload documents first."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

func formatAnswer(ans *engine.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Answer)
	sb.WriteString(fmt.Sprintf("\n\nConfidence: %.2f%%\n", ans.Confidence))
	sb.WriteString(fmt.Sprintf("Retrieval quality: %.2f%%\n", ans.RetrievalQuality))
	sb.WriteString(fmt.Sprintf("Session: %s\n", ans.SessionID))
	for i, src := range ans.Sources {
		sb.WriteString(fmt.Sprintf("\nSource %d: %s (score %.2f)\n", i+1, src.Source, src.Score))
	}
	return sb.String()
}

func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Source: %s\n", r.Document.Metadata.Source))
		sb.WriteString(fmt.Sprintf("Owner: %s (%s)\n", r.Document.Metadata.Owner, r.Document.Metadata.Privacy))
		sb.WriteString(fmt.Sprintf("Confidence: %.2f%%\n", engine.Confidence(r.Distance)))
		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
