package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Retrieval-augmented question answering over your documents",
	Long: `askdocs indexes your documents (text, PDF, DOCX) into a local vector
database and answers natural language questions about them, with
per-user access control, source attribution, and confidence scores.`,
}

func Execute() error {
	// Credentials may live in a .env file next to the config.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".askdocs.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
