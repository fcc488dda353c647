package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/jonathan/getlisticled/internal/observability"
	"github.com/spf13/cobra"
)

var variantsYear int

var variantsCmd = &cobra.Command{
	Use:   "variants <query>",
	Short: "Show the query variants a search would run",
	Long:  "Print the expanded query variants in search order. No network calls are made and no API key is needed.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVariants,
}

func init() {
	variantsCmd.Flags().IntVar(&variantsYear, "year", 0, "Year substituted into templates (default current year)")
	rootCmd.AddCommand(variantsCmd)
}

func runVariants(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(configPath, os.Getenv, currentOverrides())
	if err != nil {
		return err
	}

	query := queryArg(args)
	if query == "" {
		return &discovery.InvalidQueryError{Query: query}
	}
	year := variantsYear
	if year <= 0 {
		year = time.Now().Year()
	}
	variants := discovery.Expand(query, year, cfg.Templates, cfg.MaxVariants)

	out := cmd.OutOrStdout()
	if verbose {
		observability.NewPrinter(out).PrintVariants(query, variants)
		return nil
	}
	for _, v := range variants {
		_, _ = fmt.Fprintln(out, v)
	}
	return nil
}
