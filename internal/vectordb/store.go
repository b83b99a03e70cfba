package vectordb

import "context"

// VectorStore defines the interface for storing and searching document chunks
// by their embeddings. Implementations serialize writes internally but callers
// must not interleave Add/Persist with concurrent mutations of the same
// on-disk location.
type VectorStore interface {
	// Add appends documents carrying precomputed embeddings. Adding a
	// document whose embedding dimension differs from the index's is an
	// error: an index must be built by a single embedding model.
	Add(ctx context.Context, docs []Document) error

	// SearchVector returns up to k nearest neighbors of the query
	// embedding, ordered by ascending distance.
	SearchVector(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error)

	// Persist saves the index to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the index from the given directory. A missing or
	// corrupt index is reported as an error; the store remains empty and
	// usable, so callers may treat the failure as "no knowledge base".
	Load(ctx context.Context, dir string) error

	// Count returns the number of stored documents.
	Count() int

	// Dimensions returns the embedding dimension of the index, or 0 when
	// the index is empty.
	Dimensions() int

	// SetEmbeddingModel records which embedding model the index is built
	// with. Changing the model on a non-empty index is an error.
	SetEmbeddingModel(name string) error

	// EmbeddingModel returns the recorded embedding model name.
	EmbeddingModel() string
}
