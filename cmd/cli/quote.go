package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linkmarket/pricing-service/internal/database"
	"github.com/linkmarket/pricing-service/internal/pricing"
)

var (
	quoteWebsiteID    int64
	quoteOfferingType string
	quoteQuantity     int
	quoteNiche        string
	quoteWordCount    int
	quoteStrategy     string
	quoteOutput       string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute a price quote for a website",
	Long: `Compute a wholesale and retail quote for a website's guest post or
link insertion offering. The quote runs the full resolution pipeline:
offering selection, pricing rules, service fee, and bulk discounts.
The derived price is recorded as the website's attribution.`,
	Example: `  pricing-service quote --website 100
  pricing-service quote --website 100 --type link_insertion --quantity 12
  pricing-service quote --website 100 --niche Finance --words 1500 --output json`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Int64Var(&quoteWebsiteID, "website", 0, "Website ID (required)")
	quoteCmd.Flags().StringVar(&quoteOfferingType, "type", "", "Offering type: guest_post or link_insertion (default guest_post)")
	quoteCmd.Flags().IntVar(&quoteQuantity, "quantity", 1, "Order quantity for bulk pricing")
	quoteCmd.Flags().StringVar(&quoteNiche, "niche", "", "Content niche for rule matching")
	quoteCmd.Flags().IntVar(&quoteWordCount, "words", 0, "Content word count for rule matching")
	quoteCmd.Flags().StringVar(&quoteStrategy, "strategy", "", "Selection strategy override: min, max, or manual")
	quoteCmd.Flags().StringVar(&quoteOutput, "output", "table", "Output format: table or json")
	quoteCmd.MarkFlagRequired("website")
}

// newCalculator wires the quote calculator against the live database
func newCalculator() *pricing.Calculator {
	pool := database.Pool()
	return pricing.NewCalculator(
		database.NewOfferingRepo(pool),
		database.NewRuleRepo(pool),
		database.NewWebsiteRepo(pool),
		database.NewAttributionRepo(pool),
		cfg.EngineConfig(),
	)
}

func runQuote(cmd *cobra.Command, args []string) error {
	req := &pricing.QuoteRequest{
		WebsiteID:    quoteWebsiteID,
		OfferingType: pricing.OfferingType(quoteOfferingType),
		Strategy:     pricing.Strategy(quoteStrategy),
		Order: &pricing.OrderContext{
			Quantity:  quoteQuantity,
			Niche:     quoteNiche,
			WordCount: quoteWordCount,
		},
	}

	logger.Info().Int64("website_id", quoteWebsiteID).Msg("Computing quote")

	quote, err := newCalculator().Quote(context.Background(), req)
	if err != nil {
		return fmt.Errorf("quote failed: %w", err)
	}

	switch strings.ToLower(quoteOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(quote)
	case "table":
		outputQuoteTable(quote)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", quoteOutput)
	}

	return nil
}

func outputQuoteTable(quote *pricing.Quote) {
	fmt.Printf("\nQuote for website %d\n", quote.WebsiteID)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Field\tValue\n")
	fmt.Fprintf(w, "-----\t-----\n")
	fmt.Fprintf(w, "Offering Type\t%s\n", quote.OfferingType)
	fmt.Fprintf(w, "Wholesale\t%s\n", formatMinorUnits(quote.WholesalePrice, quote.Currency))
	fmt.Fprintf(w, "Retail\t%s\n", formatMinorUnits(quote.RetailPrice, quote.Currency))
	fmt.Fprintf(w, "Source\t%s\n", quote.Source)
	fmt.Fprintf(w, "Method\t%s\n", quote.Method)
	if quote.OfferingID != nil {
		fmt.Fprintf(w, "Offering ID\t%d\n", *quote.OfferingID)
	}
	if quote.Quantity > 1 {
		fmt.Fprintf(w, "Quantity\t%d\n", quote.Quantity)
		fmt.Fprintf(w, "Bulk Discount\t%d%%\n", quote.DiscountPercent)
		if quote.DiscountedTotal != nil {
			fmt.Fprintf(w, "Order Total\t%s\n", formatMinorUnits(*quote.DiscountedTotal, quote.Currency))
		}
	}
	fmt.Fprintf(w, "Rules Applied\t%d\n", len(quote.AppliedRules))
	w.Flush()
}

func formatMinorUnits(minorUnits int64, currency string) string {
	whole := minorUnits / 100
	frac := minorUnits % 100
	if frac < 0 {
		frac = -frac
	}
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, currency)
}
