package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

const (
	collectionName = "documents"
	indexFileName  = "index.gob.gz"
	metaFileName   = "meta.json"
)

// indexMeta is the sidecar written next to the chromem export. It lets a
// fresh process verify the embedding model before merging new chunks into
// an existing index.
type indexMeta struct {
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	Documents      int    `json:"documents"`
}

// ChromemStore implements VectorStore using chromem-go. All embeddings are
// precomputed by the caller, so the collection's embedding function is never
// invoked.
type ChromemStore struct {
	db             *chromem.DB
	collection     *chromem.Collection
	dims           int
	embeddingModel string
}

var _ VectorStore = (*ChromemStore)(nil)

// noEmbedFunc guards against any code path that would ask chromem to embed
// text itself: embeddings always arrive precomputed.
func noEmbedFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("vectordb: embeddings are precomputed, no embedding function available")
}

// NewChromemStore creates an empty in-memory ChromemStore.
func NewChromemStore() (*ChromemStore, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, noEmbedFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemStore{db: db, collection: col}, nil
}

// SetEmbeddingModel records the embedding model name persisted alongside the
// index. Setting a different model on a non-empty index is rejected.
func (s *ChromemStore) SetEmbeddingModel(name string) error {
	if s.embeddingModel != "" && s.embeddingModel != name && s.Count() > 0 {
		return fmt.Errorf("index was built with embedding model %q, refusing to mix in %q", s.embeddingModel, name)
	}
	s.embeddingModel = name
	return nil
}

// EmbeddingModel returns the recorded embedding model name, if any.
func (s *ChromemStore) EmbeddingModel() string { return s.embeddingModel }

func (s *ChromemStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
		if s.dims > 0 && len(doc.Embedding) != s.dims {
			return fmt.Errorf("embedding dimension mismatch: index has %d, document %s has %d (index must be rebuilt to switch embedding providers)",
				s.dims, doc.ID, len(doc.Embedding))
		}
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}

	if err := s.collection.AddDocuments(ctx, chromDocs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	if s.dims == 0 {
		s.dims = len(docs[0].Embedding)
	}
	return nil
}

func (s *ChromemStore) SearchVector(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 4
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if k > count {
		k = count
	}

	if s.dims > 0 && len(queryEmbedding) != s.dims {
		return nil, fmt.Errorf("query embedding has %d dimensions, index has %d", len(queryEmbedding), s.dims)
	}

	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		dist := 1 - float64(r.Similarity)
		if dist < 0 {
			dist = 0
		}
		searchResults[i] = SearchResult{
			Document: Document{
				ID:        r.ID,
				Content:   r.Content,
				Embedding: r.Embedding,
				Metadata:  mapToMetadata(r.Metadata),
			},
			Distance: dist,
		}
	}

	sort.SliceStable(searchResults, func(i, j int) bool {
		return searchResults[i].Distance < searchResults[j].Distance
	})

	return searchResults, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	if err := s.db.ExportToFile(filepath.Join(dir, indexFileName), true, ""); err != nil {
		return fmt.Errorf("exporting index: %w", err)
	}

	meta := indexMeta{
		EmbeddingModel: s.embeddingModel,
		Dimensions:     s.dims,
		Documents:      s.Count(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling index meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing index meta: %w", err)
	}
	return nil
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(filepath.Join(dir, indexFileName), "")
	if err != nil {
		// Leave the store empty and usable.
		s.reset()
		return fmt.Errorf("importing index: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, noEmbedFunc)
	if col == nil {
		s.reset()
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col

	var meta indexMeta
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err == nil && json.Unmarshal(data, &meta) == nil {
		s.dims = meta.Dimensions
		s.embeddingModel = meta.EmbeddingModel
	}
	return nil
}

// reset discards all state, leaving an empty usable store.
func (s *ChromemStore) reset() {
	s.db = chromem.NewDB()
	s.collection, _ = s.db.GetOrCreateCollection(collectionName, nil, noEmbedFunc)
	s.dims = 0
	s.embeddingModel = ""
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func (s *ChromemStore) Dimensions() int {
	return s.dims
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"owner":        m.Owner,
		"privacy":      string(m.Privacy),
		"content_hash": m.ContentHash,
		"ingested_at":  m.IngestedAt.Format(time.RFC3339),
	}
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	ingestedAt, _ := time.Parse(time.RFC3339, m["ingested_at"])
	return DocumentMetadata{
		Source:      m["source"],
		Owner:       m["owner"],
		Privacy:     PrivacyLevel(m["privacy"]),
		ContentHash: m["content_hash"],
		IngestedAt:  ingestedAt,
	}
}
