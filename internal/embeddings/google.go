package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const (
	defaultGoogleModel = "gemini-embedding-001"
	googleModelDims    = 3072

	googleEmbedURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s"
)

// GoogleEmbedder embeds text through the Gemini embedContent endpoint.
// The endpoint takes one text per request, so batches turn into
// sequential calls.
type GoogleEmbedder struct {
	key    string
	model  string
	client *http.Client
}

// NewGoogleEmbedder builds an embedder for the given model. An empty model
// selects the default; an empty apiKey falls back to GOOGLE_API_KEY.
func NewGoogleEmbedder(model, apiKey string) (*GoogleEmbedder, error) {
	if model == "" {
		model = defaultGoogleModel
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required (pass api_key or set GOOGLE_API_KEY)")
	}
	return &GoogleEmbedder{
		key:    apiKey,
		model:  model,
		client: &http.Client{},
	}, nil
}

func (e *GoogleEmbedder) Name() string { return e.model }

func (e *GoogleEmbedder) Dimensions() int { return googleModelDims }

type embedContentRequest struct {
	Content textContent `json:"content"`
}

type textContent struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *GoogleEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedContentRequest{
		Content: textContent{Parts: []textPart{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding embedContent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf(googleEmbedURL, e.model, e.key), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building embedContent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedContent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedContent status %d: %s", resp.StatusCode, detail)
	}

	var out embedContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embedContent response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedContent returned no vector")
	}
	return out.Embedding.Values, nil
}
