// Package reports builds operator-facing exports of pricing data.
package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

const driftSheetName = "Price Drift"

var driftHeaders = []string{
	"Website ID",
	"Current Price (EUR)",
	"Derived Price (EUR)",
	"Status",
	"Absolute Diff (EUR)",
	"Percent Diff",
	"Method",
	"Calculated At",
}

// DriftReporter exports a comparison of legacy flat prices against
// derived prices for every website, one row per website.
type DriftReporter struct {
	websites pricing.WebsiteSource
	recorder *pricing.Recorder
	logger   zerolog.Logger
	printer  *message.Printer
}

// NewDriftReporter creates a reporter backed by the attribution recorder
func NewDriftReporter(websites pricing.WebsiteSource, recorder *pricing.Recorder) *DriftReporter {
	return &DriftReporter{
		websites: websites,
		recorder: recorder,
		logger:   log.With().Str("component", "drift-reporter").Logger(),
		printer:  message.NewPrinter(language.English),
	}
}

// Collect gathers comparisons for the given websites. Empty ids means
// all known websites. Individual comparison failures are logged and
// skipped, the report covers what it can.
func (r *DriftReporter) Collect(ctx context.Context, ids []int64) ([]*pricing.PricingComparison, error) {
	if len(ids) == 0 {
		var err error
		ids, err = r.websites.ListWebsiteIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list websites: %w", err)
		}
	}

	comparisons := make([]*pricing.PricingComparison, 0, len(ids))
	for _, id := range ids {
		cmp, err := r.recorder.Compare(ctx, id)
		if err != nil {
			r.logger.Warn().Int64("website_id", id).Err(err).Msg("Skipping website in drift report")
			continue
		}
		comparisons = append(comparisons, cmp)
	}
	return comparisons, nil
}

// WriteXLSX renders comparisons as an Excel workbook
func (r *DriftReporter) WriteXLSX(comparisons []*pricing.PricingComparison, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", driftSheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range driftHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(driftSheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		f.SetCellStyle(driftSheetName, cell, cell, headerStyle)
	}

	for i, cmp := range comparisons {
		row := i + 2
		values := []any{
			cmp.WebsiteID,
			r.formatMoney(cmp.CurrentPrice),
			r.formatMoney(cmp.DerivedPrice),
			string(cmp.Status),
			r.formatMoney(&cmp.AbsoluteDiff),
			r.printer.Sprintf("%.1f%%", cmp.PercentDiff),
			string(cmp.Method),
			r.formatTime(cmp.CalculatedAt),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(driftSheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Generate collects comparisons and writes the workbook in one step
func (r *DriftReporter) Generate(ctx context.Context, ids []int64, w io.Writer) (int, error) {
	comparisons, err := r.Collect(ctx, ids)
	if err != nil {
		return 0, err
	}
	if err := r.WriteXLSX(comparisons, w); err != nil {
		return 0, err
	}
	r.logger.Info().Int("websites", len(comparisons)).Msg("Drift report generated")
	return len(comparisons), nil
}

// formatMoney renders minor units as a grouped decimal string. Display
// only, price math stays in int64 minor units.
func (r *DriftReporter) formatMoney(minorUnits *int64) string {
	if minorUnits == nil {
		return ""
	}
	whole := *minorUnits / 100
	frac := *minorUnits % 100
	if frac < 0 {
		frac = -frac
	}
	return r.printer.Sprintf("%d.%02d", whole, frac)
}

func (r *DriftReporter) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
