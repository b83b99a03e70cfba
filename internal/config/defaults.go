package config

// ProviderPreset describes the default models for a provider.
type ProviderPreset struct {
	Model          string
	EmbeddingModel string
}

// providerPresets maps each provider to its default chat and embedding models.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle: {Model: "gemini-2.5-flash", EmbeddingModel: "gemini-embedding-001"},
}

// GetPreset returns the default models for the given provider.
// Unknown providers fall back to the OpenAI preset.
func GetPreset(provider ProviderType) ProviderPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderOpenAI]
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	preset := providerPresets[ProviderOpenAI]
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             preset.Model,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    preset.EmbeddingModel,
		DataDir:           ".askdocs",
		Port:              8000,
		HistoryLimit:      10,
		ChunkSize:         1000,
		ChunkOverlap:      200,
	}
}
