package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	recomputeWebsiteIDs  []int64
	recomputeConcurrency int
)

// recomputeCmd represents the recompute command
var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Refresh derived prices for websites",
	Long: `Run a best-effort sweep that recomputes the derived price for the
given websites and upserts each website's attribution record. Without
--website flags the sweep covers every known website. Failures on
individual websites are reported but do not stop the sweep.`,
	Example: `  pricing-service recompute
  pricing-service recompute --website 100 --website 200
  pricing-service recompute --concurrency 8`,
	RunE: runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)

	recomputeCmd.Flags().Int64SliceVar(&recomputeWebsiteIDs, "website", nil, "Website ID to recompute (repeatable, default all)")
	recomputeCmd.Flags().IntVar(&recomputeConcurrency, "concurrency", 0, "Parallel workers (default from config)")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	concurrency := recomputeConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Sweeper.Concurrency
	}

	logger.Info().
		Int("websites", len(recomputeWebsiteIDs)).
		Int("concurrency", concurrency).
		Msg("Starting recompute sweep")

	result, err := newCalculator().RecomputeAll(context.Background(), recomputeWebsiteIDs, concurrency)
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	fmt.Printf("\nRecompute Results\n")
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Updated\t%d\n", result.Updated)
	fmt.Fprintf(w, "Errors\t%d\n", len(result.Errors))
	w.Flush()

	if len(result.Errors) > 0 {
		fmt.Printf("\nFailed websites:\n")
		for _, sweepErr := range result.Errors {
			fmt.Printf("  %d: %s\n", sweepErr.WebsiteID, sweepErr.Reason)
		}
	}

	return nil
}
