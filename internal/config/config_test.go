package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider openai, got %q", cfg.Provider)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("unexpected chunk defaults: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("expected history_limit 10, got %d", cfg.HistoryLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".askdocs.yml")
	content := "provider: gemini\nport: 9001\ndata_dir: /tmp/kb\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderGoogle {
		t.Errorf("expected gemini alias to normalize to google, got %q", cfg.Provider)
	}
	if cfg.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Port)
	}
	if cfg.DataDir != "/tmp/kb" {
		t.Errorf("expected data_dir /tmp/kb, got %q", cfg.DataDir)
	}
	// Untouched fields keep defaults.
	if cfg.ChunkSize != 1000 {
		t.Errorf("expected default chunk_size, got %d", cfg.ChunkSize)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ASKDOCS_MODEL", "gpt-4o")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("expected env override to win, got %q", cfg.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad provider", func(c *Config) { c.Provider = "anthropic" }, true},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"overlap >= size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".askdocs.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderGoogle
	cfg.Model = "gemini-2.5-flash"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Provider != ProviderGoogle || loaded.Model != "gemini-2.5-flash" {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}
