package engine

import "github.com/askdocs/askdocs/internal/vectordb"

// IngestRequest describes a batch of files to index on behalf of a user.
type IngestRequest struct {
	// Paths are filesystem paths to documents. Unreadable or unsupported
	// files are skipped with a log line; they do not abort the batch.
	Paths []string

	// Username becomes the owner recorded on every produced chunk.
	Username string

	// Privacy controls who may retrieve the chunks later.
	Privacy vectordb.PrivacyLevel

	// Provider optionally overrides the configured embedding provider.
	Provider string

	// APIKey optionally overrides the provider credential for this call.
	// It is used for the call only and never persisted.
	APIKey string
}

// QueryRequest is a single question against the indexed corpus.
type QueryRequest struct {
	Query     string
	SessionID string
	Username  string

	// Provider and APIKey optionally override the configured LLM provider
	// for this call. The key is never persisted.
	Provider string
	APIKey   string
}

// Source is one retrieved chunk attributed in an answer.
type Source struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Answer is the full result of answering a query.
type Answer struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	Confidence       float64  `json:"confidence"`
	RetrievalQuality float64  `json:"retrieval_quality"`
	SessionID        string   `json:"session_id"`
}
