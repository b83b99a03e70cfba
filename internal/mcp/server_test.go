package mcp

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/db"
	"github.com/askdocs/askdocs/internal/embeddings"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectordb"
)

type mockEmbedder struct{}

func (mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 8)
		for j, ch := range text {
			vec[(int(ch)+j)%8] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range vec {
				vec[j] = float32(float64(vec[j]) / norm)
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (mockEmbedder) Dimensions() int { return 8 }
func (mockEmbedder) Name() string    { return "mock-embed" }

type mockLLM struct{}

func (mockLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	if strings.Contains(prompt, "alternative phrasings") {
		return &llm.CompletionResponse{Content: ""}, nil
	}
	return &llm.CompletionResponse{Content: "Six weeks of parental leave."}, nil
}

func (mockLLM) Name() string { return "mock-llm" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	eng, err := engine.New(cfg, history.NewStore(database))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	eng.SetProviderFactories(
		func(_, _, _ string) (embeddings.Embedder, error) { return mockEmbedder{}, nil },
		func(_, _, _ string) (llm.Provider, error) { return mockLLM{}, nil },
	)
	return NewServer(eng)
}

func ingestOne(t *testing.T, srv *Server, content string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing doc: %v", err)
	}
	if _, err := srv.engine.Ingest(context.Background(), engine.IngestRequest{
		Paths:    []string{path},
		Username: "alice",
		Privacy:  vectordb.PrivacyPrivate,
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	if askDocumentsTool.Name != "ask_documents" {
		t.Errorf("tool name = %q", askDocumentsTool.Name)
	}
	if searchDocumentsTool.Name != "search_documents" {
		t.Errorf("tool name = %q", searchDocumentsTool.Name)
	}
}

func TestAskDocumentsMissingParams(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"username": "alice"}
	result, err := srv.handleAskDocuments(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing query")
	}

	req.Params.Arguments = map[string]any{"query": "hello"}
	result, err = srv.handleAskDocuments(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing username")
	}
}

func TestAskDocuments(t *testing.T) {
	srv := newTestServer(t)
	ingestOne(t, srv, "Parental leave is six weeks, fully paid.")

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"query":    "how long is parental leave",
		"username": "alice",
	}
	result, err := srv.handleAskDocuments(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Six weeks of parental leave.") {
		t.Errorf("answer text missing: %q", text)
	}
	if !strings.Contains(text, "Confidence:") || !strings.Contains(text, "Session:") {
		t.Errorf("metadata missing: %q", text)
	}
}

func TestSearchDocuments(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"query":    "leave policy",
		"username": "alice",
	}
	result, err := srv.handleSearchDocuments(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if !strings.Contains(resultText(t, result), "No results") {
		t.Error("expected empty-index message")
	}

	ingestOne(t, srv, "Parental leave is six weeks, fully paid.")
	result, err = srv.handleSearchDocuments(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Parental leave is six weeks") {
		t.Errorf("result missing chunk content: %q", text)
	}
	if !strings.Contains(text, "Owner: alice (private)") {
		t.Errorf("result missing ownership line: %q", text)
	}

	// A different user cannot see alice's private chunk.
	req.Params.Arguments = map[string]any{"query": "leave policy", "username": "bob"}
	result, err = srv.handleSearchDocuments(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(t, result), "No results") {
		t.Error("bob saw alice's private chunk")
	}
}
