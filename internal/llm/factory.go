package llm

import (
	"fmt"
	"os"
)

// NewProvider creates an LLM provider for the given provider name and model.
// Supported providers: "openai", "google" ("gemini" is accepted as an alias).
// The API key is supplied per call; when empty, the provider's conventional
// environment variable is consulted. Keys are never persisted.
func NewProvider(providerType string, model string, apiKey string) (Provider, error) {
	switch providerType {
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key is required (pass api_key or set OPENAI_API_KEY)")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "google", "gemini":
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("google API key is required (pass api_key or set GOOGLE_API_KEY)")
		}
		return NewGoogleProvider(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
