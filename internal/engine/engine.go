package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askdocs/askdocs/internal/chunker"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/embeddings"
	"github.com/askdocs/askdocs/internal/extract"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectordb"
)

// Canned answers for degraded query outcomes. These carry zero confidence
// and no sources.
const (
	emptyIndexAnswer = "The knowledge base is empty. Upload documents before asking questions."
	noResultsAnswer  = "I couldn't find relevant info in the knowledge base."
)

// maxExposedSources caps how many sources an answer attributes, even though
// up to maxResults chunks feed the prompt.
const maxExposedSources = 2

// Engine owns the vector index, the chat history store, and the retrieval
// and answering pipeline. One Engine serves all sessions; index mutation is
// serialized internally so concurrent ingests and queries are safe.
type Engine struct {
	cfg     *config.Config
	store   vectordb.VectorStore
	history *history.Store

	mu     sync.Mutex
	loaded bool

	// Factories are swappable for tests.
	newEmbedder func(providerType, model, apiKey string) (embeddings.Embedder, error)
	newLLM      func(providerType, model, apiKey string) (llm.Provider, error)
}

// New creates an engine over a fresh in-memory index. Any previously
// persisted index under the configured data directory is merged in lazily
// on first use.
func New(cfg *config.Config, hist *history.Store) (*Engine, error) {
	store, err := vectordb.NewChromemStore()
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	return &Engine{
		cfg:         cfg,
		store:       store,
		history:     hist,
		newEmbedder: embeddings.New,
		newLLM:      llm.NewProvider,
	}, nil
}

// SetProviderFactories overrides how the engine constructs embedding and
// LLM providers. Intended for tests.
func (e *Engine) SetProviderFactories(
	newEmbedder func(providerType, model, apiKey string) (embeddings.Embedder, error),
	newLLM func(providerType, model, apiKey string) (llm.Provider, error),
) {
	e.newEmbedder = newEmbedder
	e.newLLM = newLLM
}

// ensureLoaded merges a persisted index from disk exactly once. A missing
// or unreadable index leaves the engine running over an empty store.
func (e *Engine) ensureLoaded(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return
	}
	e.loaded = true
	if err := e.store.Load(ctx, e.cfg.IndexDir()); err != nil {
		log.Printf("index: starting empty: %v", err)
	}
}

// DocumentCount reports how many chunks the index currently holds.
func (e *Engine) DocumentCount(ctx context.Context) int {
	e.ensureLoaded(ctx)
	return e.store.Count()
}

func (e *Engine) embeddingProvider(override string) (string, string) {
	providerType := string(e.cfg.EmbeddingProvider)
	model := e.cfg.EmbeddingModel
	if override != "" && override != providerType {
		providerType = override
		model = "" // let the factory pick the provider default
	}
	return providerType, model
}

func (e *Engine) llmProvider(override string) (string, string) {
	providerType := string(e.cfg.Provider)
	model := e.cfg.Model
	if override != "" && override != providerType {
		providerType = override
		model = ""
	}
	return providerType, model
}

// Ingest extracts, chunks, embeds, and indexes the requested files, then
// persists the index. Files that cannot be read are skipped with a log
// line; embedding or indexing failures abort the whole batch. It returns
// the number of chunks added.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	if req.Username == "" {
		return 0, fmt.Errorf("username is required")
	}
	if !req.Privacy.Valid() {
		return 0, fmt.Errorf("invalid privacy level %q", req.Privacy)
	}

	var docs []extract.Document
	for _, path := range req.Paths {
		extracted, err := extract.FromFile(path)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", path, err)
			continue
		}
		docs = append(docs, extracted...)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	fragments := chunker.New(e.cfg.ChunkSize, e.cfg.ChunkOverlap).SplitDocuments(docs)
	if len(fragments) == 0 {
		return 0, nil
	}

	providerType, model := e.embeddingProvider(req.Provider)
	embedder, err := e.newEmbedder(providerType, model, req.APIKey)
	if err != nil {
		return 0, fmt.Errorf("creating embedder: %w", err)
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(fragments) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(fragments))
	}

	now := time.Now().UTC()
	records := make([]vectordb.Document, len(fragments))
	for i, f := range fragments {
		// The index is append-only: every stored chunk gets its own ID,
		// even when two users ingest identical text. The content hash is
		// metadata only, used as the dedup key at retrieval time.
		hash := contentHash(f.Text)
		records[i] = vectordb.Document{
			ID:        uuid.New().String(),
			Content:   f.Text,
			Embedding: vectors[i],
			Metadata: vectordb.DocumentMetadata{
				Source:      f.Source,
				Owner:       req.Username,
				Privacy:     req.Privacy,
				ContentHash: hash,
				IngestedAt:  now,
			},
		}
	}

	e.ensureLoaded(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.SetEmbeddingModel(embedder.Name()); err != nil {
		return 0, err
	}
	if err := e.store.Add(ctx, records); err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}
	if err := e.store.Persist(ctx, e.cfg.IndexDir()); err != nil {
		return 0, fmt.Errorf("persisting index: %w", err)
	}
	return len(records), nil
}

// Ask answers a question against the index for one session. Degraded
// outcomes (empty index, no accessible results, provider failure) produce
// a zero-confidence answer rather than an error; an error is returned only
// when the request itself is invalid. Both the question and the answer are
// appended to the session history.
func (e *Engine) Ask(ctx context.Context, req QueryRequest) (*Answer, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	msgs, err := e.history.Recent(ctx, sessionID, e.cfg.HistoryLimit)
	if err != nil {
		log.Printf("history: reading session %s: %v", sessionID, err)
		msgs = nil
	}

	answer := e.answer(ctx, req, sessionID, msgs)

	if _, err := e.history.Append(ctx, sessionID, history.RoleUser, req.Query); err != nil {
		log.Printf("history: recording question: %v", err)
	}
	if _, err := e.history.Append(ctx, sessionID, history.RoleAssistant, answer.Answer); err != nil {
		log.Printf("history: recording answer: %v", err)
	}
	return answer, nil
}

// Search retrieves accessible chunks for a query without synthesizing an
// answer or touching session history.
func (e *Engine) Search(ctx context.Context, req QueryRequest) ([]vectordb.SearchResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	e.ensureLoaded(ctx)
	if e.store.Count() == 0 {
		return nil, nil
	}
	embedProviderType, embedModel := e.embeddingProvider(req.Provider)
	embedder, err := e.newEmbedder(embedProviderType, embedModel, req.APIKey)
	if err != nil {
		return nil, err
	}
	llmProviderType, llmModel := e.llmProvider(req.Provider)
	provider, err := e.newLLM(llmProviderType, llmModel, req.APIKey)
	if err != nil {
		return nil, err
	}
	return e.retrieve(ctx, embedder, provider, req.Query, req.Username)
}

func (e *Engine) answer(ctx context.Context, req QueryRequest, sessionID string, msgs []history.Message) *Answer {
	degraded := func(text string) *Answer {
		return &Answer{Answer: text, Sources: []Source{}, SessionID: sessionID}
	}

	e.ensureLoaded(ctx)
	if e.store.Count() == 0 {
		return degraded(emptyIndexAnswer)
	}

	embedProviderType, embedModel := e.embeddingProvider(req.Provider)
	embedder, err := e.newEmbedder(embedProviderType, embedModel, req.APIKey)
	if err != nil {
		return degraded(fmt.Sprintf("Provider error: %v", err))
	}
	llmProviderType, llmModel := e.llmProvider(req.Provider)
	provider, err := e.newLLM(llmProviderType, llmModel, req.APIKey)
	if err != nil {
		return degraded(fmt.Sprintf("Provider error: %v", err))
	}

	results, err := e.retrieve(ctx, embedder, provider, req.Query, req.Username)
	if err != nil {
		return degraded(fmt.Sprintf("Retrieval error: %v", err))
	}
	if len(results) == 0 {
		return degraded(noResultsAnswer)
	}

	scores := make([]float64, len(results))
	sources := make([]Source, len(results))
	for i, r := range results {
		scores[i] = Confidence(r.Distance)
		sources[i] = Source{
			Source:  r.Document.Metadata.Source,
			Content: r.Document.Content,
			Score:   scores[i],
		}
	}
	confidence := scores[0]
	quality := retrievalQuality(scores)

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildAnswerPrompt(msgs, results, req.Query)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return degraded(fmt.Sprintf("Error from LLM: %v", err))
	}

	text := resp.Content
	if containsRefusal(text) {
		// The model declined to answer from the context. Scores derived
		// from vector distance would overstate such an answer, so they are
		// zeroed and attribution is dropped.
		return degraded(text)
	}

	if len(sources) > maxExposedSources {
		sources = sources[:maxExposedSources]
	}
	return &Answer{
		Answer:           text,
		Sources:          sources,
		Confidence:       confidence,
		RetrievalQuality: quality,
		SessionID:        sessionID,
	}
}
