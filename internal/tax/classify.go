package tax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// IncomeType enumerates the income classifications the engine understands.
type IncomeType string

const (
	Employment           IncomeType = "EMPLOYMENT"
	SelfEmployed         IncomeType = "SELF_EMPLOYED"
	CapitalGains         IncomeType = "CAPITAL_GAINS"
	Interest             IncomeType = "INTEREST"
	ForeignIncome        IncomeType = "FOREIGN_INCOME"
	DividendsEligible    IncomeType = "DIVIDENDS_ELIGIBLE_TAXABLE"
	DividendsNonEligible IncomeType = "DIVIDENDS_NON_ELIGIBLE_TAXABLE"
	Other                IncomeType = "OTHER"
)

var incomeTypes = map[IncomeType]bool{
	Employment:           true,
	SelfEmployed:         true,
	CapitalGains:         true,
	Interest:             true,
	ForeignIncome:        true,
	DividendsEligible:    true,
	DividendsNonEligible: true,
	Other:                true,
}

// Common upstream spellings seen on slips and in imports.
var incomeSynonyms = map[string]IncomeType{
	"T4":                Employment,
	"EMPLOYMENT_INCOME": Employment,
	"SELF_EMPLOYMENT":   SelfEmployed,
	"BUSINESS_INCOME":   SelfEmployed,
	"CAP_GAIN":          CapitalGains,
	"CAPITALGAIN":       CapitalGains,
	"CAPITAL_GAIN":      CapitalGains,
	"INTEREST_INCOME":   Interest,
	"FOREIGN":           ForeignIncome,
	"DIVIDEND":          DividendsEligible,
	"DIVIDENDS":         DividendsEligible,
}

// NormalizeIncomeType maps a raw string to an IncomeType. Unrecognized
// inputs map to Other with known=false; normalization never fails.
func NormalizeIncomeType(s string) (t IncomeType, known bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, " ", "_")
	if mapped, ok := incomeSynonyms[v]; ok {
		return mapped, true
	}
	if incomeTypes[IncomeType(v)] {
		return IncomeType(v), true
	}
	return Other, false
}

// Status flags whether a classification is safe to use as-is or needs a
// human to look at it.
type Status string

const (
	StatusOK     Status = "OK"
	StatusReview Status = "REVIEW"
)

// Classification is the result of converting a raw income amount into
// taxable income. LogicApplied names the rule that fired; it is part of
// the audit trail, not just logging.
type Classification struct {
	Status         Status       `json:"status"`
	TaxYear        int          `json:"tax_year"`
	IncomeType     IncomeType   `json:"income_type"`
	OriginalAmount money.Amount `json:"original_amount"`
	TaxableAmount  money.Amount `json:"taxable_amount"`
	LogicApplied   string       `json:"logic_applied"`
}

// ClassifyIncome normalizes the income type and applies the inclusion rule
// for it. Unrecognized types are never rejected: they default to full
// inclusion and carry StatusReview so a human resolves the ambiguity
// instead of the engine silently guessing.
func (e *Engine) ClassifyIncome(incomeType string, rawAmount decimal.Decimal) Classification {
	itype, known := NormalizeIncomeType(incomeType)
	amt := money.Cents(rawAmount)

	c := Classification{
		Status:         StatusOK,
		TaxYear:        e.cfg.TaxYear,
		IncomeType:     itype,
		OriginalAmount: money.Amount{Decimal: amt},
	}

	switch {
	case !known:
		c.Status = StatusReview
		c.TaxableAmount = money.Amount{Decimal: amt}
		c.LogicApplied = fmt.Sprintf("unrecognized income type %q; defaulted to full inclusion pending review", incomeType)
	case itype == CapitalGains:
		rate := e.cfg.CapitalGainsInclusionRate
		c.TaxableAmount = money.Amount{Decimal: money.Cents(amt.Mul(rate))}
		c.LogicApplied = fmt.Sprintf("capital gains inclusion at rate %s", rate.String())
	case itype == Employment:
		c.TaxableAmount = money.Amount{Decimal: amt}
		c.LogicApplied = "fully taxable employment income"
	default:
		c.TaxableAmount = money.Amount{Decimal: amt}
		c.LogicApplied = fmt.Sprintf("standard income, full inclusion (%s)", itype)
	}

	return c
}
