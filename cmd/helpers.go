package cmd

import (
	"fmt"
	"os"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/db"
	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/history"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `askdocs init` to create a config file", err)
	}
	return cfg, nil
}

// openEngine wires the database, chat history, and engine for a command.
// The caller must close the returned database.
func openEngine(cfg *config.Config) (*engine.Engine, *history.Store, *db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("preparing data dir: %w", err)
	}
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	hist := history.NewStore(database)
	eng, err := engine.New(cfg, hist)
	if err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	return eng, hist, database, nil
}
