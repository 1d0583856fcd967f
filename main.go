package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eightlaw/tax-slip-engine/internal/api"
	"github.com/eightlaw/tax-slip-engine/internal/extractor"
	"github.com/eightlaw/tax-slip-engine/internal/models"
	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/registry"
	"github.com/eightlaw/tax-slip-engine/internal/slip"
	"github.com/eightlaw/tax-slip-engine/internal/tax"
	"github.com/eightlaw/tax-slip-engine/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	slipFlag := flag.String("slip", "", "Slip type: t4, invoice (auto-detected if omitted)")
	rulesFlag := flag.String("rules", registry.DefaultPath, "Path to the tax rules registry file")
	yearFlag := flag.Int("year", 2024, "Tax year for tax estimates")
	provinceFlag := flag.String("province", "", "Province code for a combined estimate (e.g. ON, BC, AB)")
	taxFlag := flag.Bool("tax", false, "Estimate federal tax from the extracted income")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .csv extension)")
	headerFlag := flag.Bool("header", true, "Include slip metadata header rows in CSV")
	serveFlag := flag.String("serve", "", "Run the HTTP API on this address (e.g. :8080) instead of converting files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Canadian Tax Slip Engine

Extracts monetary fields from tax slip PDFs (T4, invoices) and estimates
progressive federal and provincial tax from configurable bracket rules.

Usage:
  tax-slip-engine [flags] <slip.pdf> [slip2.pdf ...]
  tax-slip-engine -serve :8080

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect the slip layout and extract fields to CSV
  tax-slip-engine t4-2024.pdf

  # Extract and estimate combined tax for Ontario
  tax-slip-engine -slip=t4 -tax -province=ON t4-2024.pdf

  # Run the HTTP API
  tax-slip-engine -serve :8080

Supported slips:
  t4        - T4 Statement of Remuneration Paid
  invoice   - Retailer invoices (GST/HST + PST capture)
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("tax-slip-engine v%s\n", version)
		os.Exit(0)
	}

	reg, err := registry.Load(*rulesFlag)
	if err != nil {
		fatalf("%v\n", err)
	}

	if *serveFlag != "" {
		srv := api.NewServer(reg)
		fmt.Printf("tax-slip-engine v%s listening on %s\n", version, *serveFlag)
		if err := srv.App().Listen(*serveFlag); err != nil {
			fatalf("server failed: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	// Validate slip flag if provided
	var slipType models.SlipType
	if *slipFlag != "" {
		switch strings.ToLower(*slipFlag) {
		case "t4":
			slipType = models.SlipT4
		case "invoice":
			slipType = models.SlipInvoice
		default:
			fatalf("Unknown slip type %q. Supported: t4, invoice\n", *slipFlag)
		}
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, slipType, reg, *yearFlag, *provinceFlag, *taxFlag, *outputFlag, *headerFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(inputPath string, slipType models.SlipType, reg *registry.Registry, taxYear int, province string, estimateTax bool, outputPath string, includeHeader bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	text, err := extractor.ExtractTextCombined(inputPath)
	if err != nil {
		return fmt.Errorf("PDF extraction failed: %w", err)
	}

	effectiveType := slipType
	if effectiveType == "" {
		detected, _, err := slip.Detect(text)
		if err != nil {
			return err
		}
		effectiveType = detected
		fmt.Printf("  Auto-detected slip type: %s\n", effectiveType)
	}

	ex, err := slip.New(effectiveType)
	if err != nil {
		return err
	}

	fmt.Printf("  Using %s extractor\n", ex.SlipName())

	result, err := ex.Extract(text)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	printSummary(result)

	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.WriteToFile(outPath, result); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	if estimateTax && result.T4 != nil && result.T4.Box14Income != nil {
		if err := printTaxEstimate(reg, taxYear, province, result); err != nil {
			return err
		}
	}

	fmt.Println("  Done.")
	return nil
}

func printSummary(result *models.ExtractionResult) {
	if t4 := result.T4; t4 != nil {
		if t4.Employer != "" {
			fmt.Printf("  Employer: %s\n", t4.Employer)
		}
		if t4.Year != 0 {
			fmt.Printf("  Slip year: %d\n", t4.Year)
		}
		if t4.Box14Income != nil {
			fmt.Printf("  Box 14 employment income: $%s\n", t4.Box14Income.StringFixed(2))
		}
		if t4.Box22TaxDeducted != nil {
			fmt.Printf("  Box 22 income tax deducted: $%s\n", t4.Box22TaxDeducted.StringFixed(2))
		}
	}
	if inv := result.Invoice; inv != nil {
		if inv.SoldBy != "" {
			fmt.Printf("  Sold by: %s\n", inv.SoldBy)
		}
		if inv.TotalPayable != nil {
			fmt.Printf("  Total payable: $%s\n", inv.TotalPayable.StringFixed(2))
		}
		fmt.Printf("  Items captured: %d\n", len(inv.Items))
	}
}

func printTaxEstimate(reg *registry.Registry, taxYear int, province string, result *models.ExtractionResult) error {
	engine, err := tax.NewEngine(reg, taxYear)
	if err != nil {
		return err
	}

	classification := engine.ClassifyIncome("EMPLOYMENT", result.T4.Box14Income.Decimal)
	total, breakdown := engine.FederalTaxBreakdown(classification.TaxableAmount.Decimal)

	fmt.Printf("  Federal tax before credits (%d): $%s\n", taxYear, money.String(total))
	if err := writer.WriteBreakdown(os.Stdout, total, breakdown); err != nil {
		return err
	}

	if province != "" {
		combined, err := engine.CombinedFederalProvincial(classification.TaxableAmount.Decimal, strings.ToUpper(province))
		if err != nil {
			return err
		}
		fmt.Printf("  Provincial tax (%s): $%s\n", combined.Province, combined.ProvincialTax.StringFixed(2))
		fmt.Printf("  Total estimated tax: $%s (average rate %s%%)\n",
			combined.TotalTax.StringFixed(2), combined.AverageRatePct.StringFixed(2))
	}

	if result.T4.Box22TaxDeducted != nil {
		fmt.Printf("  Already deducted at source: $%s\n", result.T4.Box22TaxDeducted.StringFixed(2))
	}

	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
