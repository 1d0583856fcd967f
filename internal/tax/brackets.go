package tax

import (
	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/registry"
)

// BracketTax is one bracket's contribution to a progressive tax total.
// Monetary fields marshal as fixed-point strings; the rate keeps its
// natural precision.
type BracketTax struct {
	Rate             decimal.Decimal `json:"rate"`
	TaxableInBracket money.Amount    `json:"taxable_in_bracket"`
	Tax              money.Amount    `json:"tax_for_bracket"`
}

// ProgressiveTax computes tax owed over an ascending bracket schedule.
func ProgressiveTax(taxableIncome decimal.Decimal, brackets []registry.Bracket) decimal.Decimal {
	total, _ := ProgressiveTaxBreakdown(taxableIncome, brackets)
	return total
}

// ProgressiveTaxBreakdown walks the brackets in ascending order and
// returns the total alongside each bracket's contribution.
//
// Each bracket's tax is rounded to cents independently before summation.
// This matches statutory computation conventions; rounding once at the end
// would diverge from published tax tables by a cent in some ranges.
func ProgressiveTaxBreakdown(taxableIncome decimal.Decimal, brackets []registry.Bracket) (decimal.Decimal, []BracketTax) {
	remaining := money.Cents(taxableIncome)
	if !remaining.IsPositive() {
		return money.Zero, nil
	}

	previousLimit := decimal.Zero
	total := decimal.Zero
	var breakdown []BracketTax

	for _, b := range brackets {
		if !remaining.IsPositive() {
			break
		}

		inBracket := remaining
		if !b.NoLimit {
			span := b.UpTo.Sub(previousLimit)
			if remaining.GreaterThan(span) {
				inBracket = span
			}
			previousLimit = b.UpTo
		}

		bracketTax := money.Cents(inBracket.Mul(b.Rate))
		total = total.Add(bracketTax)
		remaining = remaining.Sub(inBracket)

		breakdown = append(breakdown, BracketTax{
			Rate:             b.Rate,
			TaxableInBracket: money.Amount{Decimal: inBracket},
			Tax:              money.Amount{Decimal: bracketTax},
		})
	}

	return total, breakdown
}
