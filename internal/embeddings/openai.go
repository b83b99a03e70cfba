package embeddings

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "text-embedding-3-small"

// openaiBatchLimit caps texts per CreateEmbeddings call. Large ingests
// are split into sequential requests.
const openaiBatchLimit = 100

// Vector widths of the supported OpenAI embedding models. Unknown models
// fall back to the default model's width.
var openaiModelDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIEmbedder embeds text through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder builds an embedder for the given model. An empty model
// selects the default; an empty apiKey falls back to OPENAI_API_KEY. The
// key lives only inside the returned client.
func NewOpenAIEmbedder(model, apiKey string) (*OpenAIEmbedder, error) {
	if model == "" {
		model = defaultOpenAIModel
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required (pass api_key or set OPENAI_API_KEY)")
	}
	dims, ok := openaiModelDims[model]
	if !ok {
		dims = openaiModelDims[defaultOpenAIModel]
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
		dims:   dims,
	}, nil
}

func (e *OpenAIEmbedder) Name() string { return e.model }

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openaiBatchLimit {
		batch := texts[start:min(start+openaiBatchLimit, len(texts))]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch of %d texts: %w", len(batch), err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(batch))
		}
		for _, item := range resp.Data {
			vectors = append(vectors, item.Embedding)
		}
	}
	return vectors, nil
}
