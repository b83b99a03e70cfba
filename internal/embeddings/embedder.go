// Package embeddings turns chunk and query text into the fixed-length
// vectors the index stores. Vectors are always computed here, up front;
// nothing downstream embeds on its own.
package embeddings

import "context"

// Embedder computes embedding vectors for document chunks and queries.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector this embedder produces.
	// Vectors of different lengths never share an index.
	Dimensions() int

	// Name identifies the model. It is recorded in the index metadata so
	// a reopened index can refuse vectors from a different model.
	Name() string
}
