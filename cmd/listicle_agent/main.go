// Package main provides the entry point for the GetListicled CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listicle_agent",
	Short: "GetListicled listicle discovery",
	Long: "GetListicled finds \"best of\" and \"top N\" articles for a niche by fanning one search " +
		"phrase out into query variants, running them through an AI search provider and merging " +
		"the cited articles into one deduplicated list.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Flags shared by every command.
var (
	configPath string
	provider   string
	apiKeyFlag string
	logLevel   string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Search provider: perplexity, gemini or customsearch (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Provider API key (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print formatted boxes instead of plain output")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
