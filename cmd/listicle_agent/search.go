package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/jonathan/getlisticled/internal/observability"
	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Discover listicles for a niche",
	Long: "Expand the query into variants, search each one and print the merged, deduplicated " +
		"list of listicle articles.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := queryArg(args)
	results, err := a.service.Search(ctx, query)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	switch {
	case searchJSON:
		if results == nil {
			results = []discovery.ListicleResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"results": results})
	case verbose:
		observability.NewPrinter(out).PrintResults(query, results)
	default:
		for _, r := range results {
			_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", r.Domain, r.Title, r.URL)
		}
	}
	return nil
}

// userError keeps upstream details out of the message for total failures; the
// per-variant causes are already in the log.
func userError(err error) error {
	if discovery.IsTotalFailure(err) {
		return errors.New(discovery.UnavailableMessage)
	}
	return err
}
