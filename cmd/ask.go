package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs/internal/engine"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed documents",
	Long: `Retrieves the most relevant chunks visible to the user and generates a
grounded answer with confidence and source attribution.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("user", "", "user asking the question (required)")
	askCmd.Flags().String("session", "", "chat session to continue; omit to start a new one")
	askCmd.Flags().String("provider", "", "override the configured LLM provider")
	askCmd.Flags().String("api-key", "", "API key for this call (defaults to the provider's env variable)")
	askCmd.Flags().Bool("json", false, "output the full answer as JSON")
	askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	session, _ := cmd.Flags().GetString("session")
	provider, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	eng, _, database, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ans, err := eng.Ask(context.Background(), engine.QueryRequest{
		Query:     args[0],
		SessionID: session,
		Username:  user,
		Provider:  provider,
		APIKey:    apiKey,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	fmt.Println(ans.Answer)
	fmt.Println()
	fmt.Printf("Confidence: %s  Retrieval quality: %.2f%%\n",
		confidenceLabel(ans.Confidence), ans.RetrievalQuality)
	for i, src := range ans.Sources {
		fmt.Printf("Source %d: %s (score %.2f)\n", i+1, src.Source, src.Score)
	}
	fmt.Printf("Session: %s\n", ans.SessionID)
	return nil
}

func confidenceLabel(confidence float64) string {
	text := fmt.Sprintf("%.2f%%", confidence)
	switch {
	case confidence >= 80:
		return color.New(color.FgGreen, color.Bold).Sprint(text)
	case confidence >= 50:
		return color.New(color.FgYellow, color.Bold).Sprint(text)
	default:
		return color.New(color.FgRed, color.Bold).Sprint(text)
	}
}
