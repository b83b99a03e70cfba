package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs/internal/engine"
	"github.com/askdocs/askdocs/internal/vectordb"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [patterns...]",
	Short: "Index documents into the knowledge base",
	Long: `Extracts, chunks, and embeds the given documents and adds them to the
persistent vector index. Patterns support ** globs, e.g. "docs/**/*.pdf".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("user", "", "owner recorded on the indexed chunks (required)")
	ingestCmd.Flags().String("privacy", "private", "access level: private or public")
	ingestCmd.Flags().String("provider", "", "override the configured embedding provider")
	ingestCmd.Flags().String("api-key", "", "API key for this call (defaults to the provider's env variable)")
	ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	privacy, _ := cmd.Flags().GetString("privacy")
	provider, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")

	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match the given patterns")
	}

	eng, _, database, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Indexing documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	total := 0
	for _, path := range paths {
		bar.Describe(fmt.Sprintf("Indexing %s", path))
		n, err := eng.Ingest(ctx, engine.IngestRequest{
			Paths:    []string{path},
			Username: user,
			Privacy:  vectordb.PrivacyLevel(privacy),
			Provider: provider,
			APIKey:   apiKey,
		})
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		total += n
		_ = bar.Add(1)
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Printf("%s Indexed %d chunk(s) from %d file(s) as %s (%s)\n",
		green("Done."), total, len(paths), user, privacy)
	return nil
}

// expandPatterns resolves ** glob patterns to concrete file paths.
// A literal path that exists is kept as-is.
func expandPatterns(patterns []string) ([]string, error) {
	var paths []string
	seen := map[string]bool{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				matches = []string{pattern}
			}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}
