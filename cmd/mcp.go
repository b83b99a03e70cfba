package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/askdocs/askdocs/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document question-answering and search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, _, database, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		mcpserver.Version = Version

		// Stdout carries protocol messages; status goes to stderr.
		fmt.Fprintf(os.Stderr, "askdocs MCP server started on stdio (data=%s)\n", cfg.DataDir)

		return mcpserver.NewServer(eng).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
