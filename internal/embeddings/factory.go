package embeddings

import "fmt"

// New selects an embedder by provider name. "gemini" is accepted as an
// alias for "google". Default-model and API-key fallback handling live in
// the provider constructors; keys are supplied per call and never stored
// beyond the returned embedder.
func New(providerType string, model string, apiKey string) (Embedder, error) {
	switch providerType {
	case "openai":
		return NewOpenAIEmbedder(model, apiKey)
	case "google", "gemini":
		return NewGoogleEmbedder(model, apiKey)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
