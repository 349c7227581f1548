package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmarket/pricing-service/internal/database"
	"github.com/linkmarket/pricing-service/internal/pricing"
	"github.com/linkmarket/pricing-service/internal/reports"
)

var (
	reportWebsiteIDs []int64
	reportOutputPath string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a price drift report as XLSX",
	Long: `Compare every website's legacy flat price against its last derived
price and export the result as an Excel workbook, one row per website.
Each row carries the drift classification: match, mismatch, or which
side of the comparison is missing.`,
	Example: `  pricing-service report --out drift.xlsx
  pricing-service report --website 100 --website 200 --out drift.xlsx`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Int64SliceVar(&reportWebsiteIDs, "website", nil, "Website ID to include (repeatable, default all)")
	reportCmd.Flags().StringVar(&reportOutputPath, "out", "drift-report.xlsx", "Output file path")
}

func runReport(cmd *cobra.Command, args []string) error {
	pool := database.Pool()
	websites := database.NewWebsiteRepo(pool)
	recorder := pricing.NewRecorder(database.NewAttributionRepo(pool), websites)
	reporter := reports.NewDriftReporter(websites, recorder)

	file, err := os.Create(reportOutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	count, err := reporter.Generate(context.Background(), reportWebsiteIDs, file)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	fmt.Printf("Wrote drift report for %d websites to %s\n", count, reportOutputPath)
	return nil
}
