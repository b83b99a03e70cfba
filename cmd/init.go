package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long:  `Walks through provider, data directory, and port selection and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("Config written to %s (provider=%s, model=%s)\n", cfgFile, cfg.Provider, cfg.Model)
		fmt.Printf("Set %s before running `askdocs ingest` or `askdocs ask`.\n", config.APIKeyEnvVar(cfg.Provider))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
