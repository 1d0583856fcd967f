package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// NoticeOfAssessment carries the CRA-stated figures from the filer's
// previous-year assessment. When present it is the authoritative source
// for RRSP deduction room.
type NoticeOfAssessment struct {
	TaxYear                  int          `json:"tax_year"`
	EarnedIncomePreviousYear money.Amount `json:"earned_income_previous_year"`
	DeductionLimit           money.Amount `json:"rrsp_deduction_limit"`
	UnusedContributions      money.Amount `json:"unused_contributions"`
}

// RRSP contribution statuses.
const (
	RRSPOptimal = "OPTIMAL"
	RRSPWarning = "WARNING"
	RRSPDanger  = "DANGER"
)

// CRA tolerates this much over-contribution before the 1%/month penalty.
var overContributionBuffer = money.MustParse("2000.00")

// RRSPAdvice reports whether a contribution fits the filer's room.
type RRSPAdvice struct {
	Status         string       `json:"status"`
	Contribution   money.Amount `json:"contribution_amount"`
	DeductionLimit money.Amount `json:"deduction_limit"`
	LimitSource    string       `json:"limit_source"`
	Message        string       `json:"message"`
}

// CheckRRSPContribution evaluates a contribution against the deduction
// limit. With a Notice of Assessment the exact CRA limit is used;
// without one the limit is estimated as percent_limit of current income,
// capped at the year's dollar limit.
func (e *Engine) CheckRRSPContribution(contribution decimal.Decimal, noa *NoticeOfAssessment, estimatedCurrentIncome decimal.Decimal) RRSPAdvice {
	contrib := money.Cents(contribution)

	var limit decimal.Decimal
	var source string
	if noa != nil {
		limit = money.Cents(noa.DeductionLimit.Decimal)
		source = "CRA Notice of Assessment (exact)"
	} else {
		estIncome := money.Cents(estimatedCurrentIncome)
		limit = money.Cents(estIncome.Mul(e.cfg.RRSP.PercentLimit))
		if limit.GreaterThan(e.cfg.RRSP.DollarLimit) {
			limit = e.cfg.RRSP.DollarLimit
		}
		source = "estimated from current income; upload a Notice of Assessment for the exact limit"
	}

	advice := RRSPAdvice{
		Contribution:   money.Amount{Decimal: contrib},
		DeductionLimit: money.Amount{Decimal: limit},
		LimitSource:    source,
	}

	over := contrib.Sub(limit)
	switch {
	case over.GreaterThan(overContributionBuffer):
		advice.Status = RRSPDanger
		advice.Message = fmt.Sprintf("over-contribution of $%s; 1%%/month penalty applies", money.String(over))
	case over.IsPositive():
		advice.Status = RRSPWarning
		advice.Message = fmt.Sprintf("exceeds deduction limit by $%s, but within the $2,000 buffer", money.String(over))
	default:
		advice.Status = RRSPOptimal
		advice.Message = "contribution is within safe limits"
	}

	return advice
}
