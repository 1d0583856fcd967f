package slip

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/models"
	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// InvoiceExtractor pulls header fields and totals from invoice-style OCR
// text (retailer invoices, e.g. Amazon). It is deliberately conservative:
// reliable header fields and totals first, a best-effort item list when
// the layout cooperates.
type InvoiceExtractor struct{}

func (x *InvoiceExtractor) SlipName() string {
	return "Invoice"
}

var (
	invMoneyPattern   = regexp.MustCompile(`\$?\s*([0-9]{1,3}(?:,[0-9]{3})*\.[0-9]{2}|[0-9]+\.[0-9]{2})`)
	invDatePattern    = regexp.MustCompile(`(?i)(?:invoice date|date de facturation)\s*:\s*([0-9]{1,2}\s+[A-Za-z]+\s+[0-9]{4})`)
	invNumberPattern  = regexp.MustCompile(`(?i)(?:invoice\s*#|#\s*de\s*facture)\s*[:/]*\s*([A-Z0-9\-]+)`)
	invTotalPattern   = regexp.MustCompile(`(?i)(?:total payable|total à payer)\s*[:/]*\s*\$?\s*([0-9,]+\.[0-9]{2})`)
	invSoldByPattern  = regexp.MustCompile(`(?i)(?:sold by|vendu par)\s*[:/]*\s*(.+)`)
	invGSTNoPattern   = regexp.MustCompile(`(?i)(?:gst/hst\s*#|#\s*de\s*tps/tvh)\s*[:/]*\s*([A-Z0-9 \-]+)`)
	invPSTNoPattern   = regexp.MustCompile(`(?i)(?:pst\s*#|#\s*de\s*tvp)\s*[:/]*\s*([A-Z0-9 \-]+)`)
)

const maxInvoiceItems = 15

func (x *InvoiceExtractor) Extract(text string) (*models.ExtractionResult, error) {
	inv := &models.InvoiceFields{}
	trimmed := strings.TrimSpace(text)
	lines := nonEmptyLines(trimmed)

	if m := invDatePattern.FindStringSubmatch(trimmed); m != nil {
		inv.InvoiceDate = strings.TrimSpace(m[1])
	}
	if m := invNumberPattern.FindStringSubmatch(trimmed); m != nil {
		inv.InvoiceNumber = strings.TrimSpace(m[1])
	}
	if m := invTotalPattern.FindStringSubmatch(trimmed); m != nil {
		if v, err := money.Parse(m[1]); err == nil {
			total := money.NewAmount(v)
			inv.TotalPayable = &total
		}
	}
	if m := invSoldByPattern.FindStringSubmatch(trimmed); m != nil {
		soldBy := strings.TrimSpace(m[1])
		// OCR often runs the next label into this line.
		soldBy = strings.TrimSpace(strings.Split(soldBy, "Invoice")[0])
		inv.SoldBy = soldBy
	}
	if m := invGSTNoPattern.FindStringSubmatch(trimmed); m != nil {
		inv.GSTNumber = strings.TrimSpace(m[1])
	}
	if m := invPSTNoPattern.FindStringSubmatch(trimmed); m != nil {
		inv.PSTNumber = strings.TrimSpace(m[1])
	}

	inv.GSTAmount, inv.PSTAmount = findTaxAmounts(lines)
	inv.Items = findItems(lines)

	return &models.ExtractionResult{DocType: models.SlipInvoice, Invoice: inv}, nil
}

// findTaxAmounts looks for the trailing "Total ..." line, which on these
// layouts carries subtotal, GST and PST figures side by side. The last two
// non-negative figures are the best guess for GST then PST.
func findTaxAmounts(lines []string) (gst, pst *money.Amount) {
	for i := len(lines) - 1; i >= 0; i-- {
		ln := lines[i]
		if !strings.HasPrefix(strings.ToLower(ln), "total ") {
			continue
		}
		var positives []decimal.Decimal
		for _, m := range invMoneyPattern.FindAllStringSubmatch(ln, -1) {
			v, err := money.Parse(m[1])
			if err != nil || v.IsNegative() {
				continue
			}
			positives = append(positives, v)
		}
		if len(positives) >= 2 {
			g := money.NewAmount(positives[len(positives)-2])
			p := money.NewAmount(positives[len(positives)-1])
			gst, pst = &g, &p
		}
		return gst, pst
	}
	return nil, nil
}

// findItems captures lines shaped like "<description> ... $<amount>".
func findItems(lines []string) []models.InvoiceItem {
	var items []models.InvoiceItem
	for _, ln := range lines {
		if strings.Contains(strings.ToLower(ln), "asin:") {
			continue
		}
		if !strings.Contains(ln, "$") || len(ln) <= 20 {
			continue
		}
		loc := invMoneyPattern.FindStringSubmatchIndex(ln)
		if loc == nil {
			continue
		}
		amt, err := money.Parse(ln[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		desc := strings.Trim(ln[:loc[0]], " -:\t")
		if len(desc) < 6 {
			continue
		}
		if len(desc) > 200 {
			desc = desc[:200]
		}
		items = append(items, models.InvoiceItem{Description: desc, Amount: money.NewAmount(amt)})
		if len(items) >= maxInvoiceItems {
			break
		}
	}
	return items
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
