package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/getlisticled/internal/observability"
	"github.com/spf13/cobra"
)

var estimateJSON bool

var estimateCmd = &cobra.Command{
	Use:   "estimate <query>",
	Short: "Estimate how many listicles exist for a niche",
	Long:  "Run one unexpanded search and print a scaled teaser count of the articles it cites.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "Print the estimate as JSON")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := queryArg(args)
	n, err := a.service.Estimate(ctx, query)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	switch {
	case estimateJSON:
		return json.NewEncoder(out).Encode(map[string]int{"estimatedCount": n})
	case verbose:
		observability.NewPrinter(out).PrintEstimate(query, n)
	default:
		_, _ = fmt.Fprintln(out, n)
	}
	return nil
}
