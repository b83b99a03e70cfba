package config

// ProviderType identifies an LLM/embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
)

// Config is the top-level askdocs configuration, corresponding to .askdocs.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Port              int          `yaml:"port" koanf:"port"`
	HistoryLimit      int          `yaml:"history_limit" koanf:"history_limit"`
	ChunkSize         int          `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int          `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	AllowAllOrigins   bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
