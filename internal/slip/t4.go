package slip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/models"
	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// T4Extractor recovers the monetary boxes from a T4 "Statement of
// Remuneration Paid" slip.
//
// T4 OCR text has no reliable geometry: box labels and values drift apart,
// decimal points vanish, and dollars/cents split across tokens. The
// extractor runs a staged pipeline (isolate region, tokenize, explicit box
// scan, exclusion filter, pool inference) where every stage degrades
// gracefully and unresolved fields stay nil.
type T4Extractor struct{}

func (x *T4Extractor) SlipName() string {
	return "T4 Statement of Remuneration"
}

func (x *T4Extractor) Extract(text string) (*models.ExtractionResult, error) {
	fields := &models.T4Fields{}
	region := isolateRegion(text)

	fields.Employer = guessEmployer(region)
	fields.Year = findTaxYear(region)

	tokens := tokenize(region)
	resolved, pool := scanTokens(tokens)

	pool = filterExcluded(pool)
	inferFields(pool, resolved)

	fields.Box14Income = amountOrNil(resolved, FieldBox14Income)
	fields.Box16CPP = amountOrNil(resolved, FieldBox16CPP)
	fields.Box18EI = amountOrNil(resolved, FieldBox18EI)
	fields.Box22TaxDeducted = amountOrNil(resolved, FieldBox22TaxDeducted)

	return &models.ExtractionResult{DocType: models.SlipT4, T4: fields}, nil
}

func amountOrNil(resolved map[string]decimal.Decimal, field string) *money.Amount {
	if v, ok := resolved[field]; ok {
		a := money.Amount{Decimal: v}
		return &a
	}
	return nil
}

// Form vocabulary that disqualifies a line from being the employer name.
var employerSkipWords = []string{
	"t4", "statement", "remuneration", "état de la rémunération",
	"canada revenue", "agence du revenu", "year", "année",
}

// guessEmployer takes the first early line that is not form boilerplate
// and not mostly numeric. The employer name is usually printed above the
// boxes on CRA slips.
func guessEmployer(text string) string {
	lines := strings.Split(text, "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		checked++
		if checked > 5 {
			break
		}
		if len(line) <= 3 {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, w := range employerSkipWords {
			if strings.Contains(lower, w) {
				skip = true
				break
			}
		}
		if skip || mostlyDigits(line) {
			continue
		}
		return line
	}
	return ""
}

func mostlyDigits(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*2 > len(s)
}

var taxYearPattern = regexp.MustCompile(`\b(20[0-4]\d)\b`)

// findTaxYear returns the first plausible slip year in the text, or 0.
func findTaxYear(text string) int {
	m := taxYearPattern.FindString(text)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}
