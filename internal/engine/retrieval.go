package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/askdocs/askdocs/internal/embeddings"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectordb"
)

const (
	// searchK is how many candidates each query variant pulls from the index.
	searchK = 4
	// maxResults caps how many deduplicated chunks feed the answer prompt.
	maxResults = 3
	// maxVariations bounds how many alternative phrasings expansion may add.
	maxVariations = 2
	// expansionTokenLimit: queries at or above this many whitespace tokens
	// are specific enough that rephrasing tends to dilute them.
	expansionTokenLimit = 10
)

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// expandQuery asks the model for alternative phrasings of a short query.
// Expansion is best effort: any provider error yields no variants rather
// than failing the retrieval.
func expandQuery(ctx context.Context, provider llm.Provider, query string) []string {
	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildExpansionPrompt(query)},
		},
		Temperature: 0.3,
		MaxTokens:   256,
	})
	if err != nil {
		return nil
	}
	var variants []string
	for _, line := range strings.Split(resp.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, query) {
			continue
		}
		variants = append(variants, line)
		if len(variants) == maxVariations {
			break
		}
	}
	return variants
}

// accessible reports whether a stored chunk may be shown to username.
// Private chunks are visible to their owner only; public chunks to everyone.
func accessible(meta vectordb.DocumentMetadata, username string) bool {
	if meta.Privacy == vectordb.PrivacyPublic {
		return true
	}
	return meta.Owner == username
}

// retrieve runs multi-query search over the index and returns at most
// maxResults accessible, deduplicated chunks ordered by ascending distance.
func (e *Engine) retrieve(ctx context.Context, embedder embeddings.Embedder, provider llm.Provider, query, username string) ([]vectordb.SearchResult, error) {
	variants := []string{query}
	if len(strings.Fields(query)) < expansionTokenLimit {
		variants = append(variants, expandQuery(ctx, provider, query)...)
	}

	vectors, err := embedder.Embed(ctx, variants)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Dedup across variants by content hash, keeping the best distance seen.
	best := make(map[string]vectordb.SearchResult)
	for _, vec := range vectors {
		results, err := e.store.SearchVector(ctx, vec, searchK)
		if err != nil {
			return nil, fmt.Errorf("searching index: %w", err)
		}
		for _, r := range results {
			if !accessible(r.Document.Metadata, username) {
				continue
			}
			key := r.Document.Metadata.ContentHash
			if key == "" {
				key = contentHash(r.Document.Content)
			}
			if prev, ok := best[key]; !ok || r.Distance < prev.Distance {
				best[key] = r
			}
		}
	}

	merged := make([]vectordb.SearchResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}
