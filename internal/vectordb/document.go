package vectordb

import "time"

// PrivacyLevel is the access-control tag on a stored chunk.
type PrivacyLevel string

const (
	PrivacyPrivate PrivacyLevel = "private"
	PrivacyPublic  PrivacyLevel = "public"
)

// Valid reports whether p is a recognized privacy level.
func (p PrivacyLevel) Valid() bool {
	return p == PrivacyPrivate || p == PrivacyPublic
}

// Document is one chunk of source text stored in the vector index,
// together with its precomputed embedding. Documents are immutable once
// stored; the index is append-only.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  DocumentMetadata
}

// DocumentMetadata holds the provenance and access-control tags of a chunk.
type DocumentMetadata struct {
	Source      string
	Owner       string
	Privacy     PrivacyLevel
	ContentHash string
	IngestedAt  time.Time
}

// SearchResult pairs a document with its distance from the query vector.
// Distance is 1 - cosine similarity, so lower means more similar.
type SearchResult struct {
	Document Document
	Distance float64
}
