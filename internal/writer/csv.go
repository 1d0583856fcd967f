// Package writer renders extraction results and tax breakdowns as CSV
// for spreadsheet review.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/models"
	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/tax"
)

// CSVWriter writes extraction results to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes an extraction result to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, result *models.ExtractionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, result)
}

// Write writes an extraction result in CSV format to the given writer.
// Unresolved fields are emitted as empty cells, not zeros: downstream
// review must be able to tell "absent" from "0.00".
func (w *CSVWriter) Write(out io.Writer, result *models.ExtractionResult) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if w.IncludeHeader {
		cw.Write([]string{"# Document Type", string(result.DocType)})
		if result.T4 != nil {
			if result.T4.Employer != "" {
				cw.Write([]string{"# Employer", result.T4.Employer})
			}
			if result.T4.Year != 0 {
				cw.Write([]string{"# Tax Year", strconv.Itoa(result.T4.Year)})
			}
		}
		if result.Invoice != nil && result.Invoice.SoldBy != "" {
			cw.Write([]string{"# Sold By", result.Invoice.SoldBy})
		}
	}

	if err := cw.Write([]string{"Field", "Amount"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range fieldRows(result) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

func fieldRows(result *models.ExtractionResult) [][]string {
	var rows [][]string

	if t4 := result.T4; t4 != nil {
		rows = append(rows,
			[]string{"box_14_income", formatAmount(t4.Box14Income)},
			[]string{"box_16_cpp", formatAmount(t4.Box16CPP)},
			[]string{"box_18_ei", formatAmount(t4.Box18EI)},
			[]string{"box_22_tax_deducted", formatAmount(t4.Box22TaxDeducted)},
		)
	}

	if inv := result.Invoice; inv != nil {
		rows = append(rows,
			[]string{"total_payable", formatAmount(inv.TotalPayable)},
			[]string{"gst_hst_amount", formatAmount(inv.GSTAmount)},
			[]string{"pst_amount", formatAmount(inv.PSTAmount)},
		)
		for _, item := range inv.Items {
			rows = append(rows, []string{"item: " + item.Description, item.Amount.StringFixed(2)})
		}
	}

	return rows
}

// WriteBreakdown writes a progressive tax breakdown in CSV format.
func WriteBreakdown(out io.Writer, total decimal.Decimal, breakdown []tax.BracketTax) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()

	if err := cw.Write([]string{"Rate", "Taxable In Bracket", "Tax"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, b := range breakdown {
		row := []string{b.Rate.String(), b.TaxableInBracket.StringFixed(2), b.Tax.StringFixed(2)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return cw.Write([]string{"Total", "", money.String(total)})
}

func formatAmount(amount *money.Amount) string {
	if amount == nil {
		return ""
	}
	return amount.StringFixed(2)
}
