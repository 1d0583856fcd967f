// Package tax implements the Canadian T1 calculation core: income
// classification, progressive federal and provincial bracket math, and the
// RRSP contribution check. All computation is a deterministic single pass
// over an immutable, already-loaded rules configuration.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/registry"
)

// Engine computes taxes for one configured tax year. Instances are
// stateless beyond the loaded configuration and safe for concurrent use.
type Engine struct {
	cfg *registry.YearConfig
}

// NewEngine binds an engine to a tax year from the registry. An
// unconfigured year is a *registry.ConfigError, never a silent fallback.
func NewEngine(reg *registry.Registry, taxYear int) (*Engine, error) {
	cfg, err := reg.YearConfig(taxYear)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// TaxYear returns the year this engine is bound to.
func (e *Engine) TaxYear() int {
	return e.cfg.TaxYear
}

// FederalTax computes federal tax before credits on taxable income.
func (e *Engine) FederalTax(taxableIncome decimal.Decimal) decimal.Decimal {
	return ProgressiveTax(taxableIncome, e.cfg.FederalBrackets)
}

// FederalTaxBreakdown is FederalTax with per-bracket contributions,
// needed for UI transparency and bracket-by-bracket verification.
func (e *Engine) FederalTaxBreakdown(taxableIncome decimal.Decimal) (decimal.Decimal, []BracketTax) {
	return ProgressiveTaxBreakdown(taxableIncome, e.cfg.FederalBrackets)
}

// CombinedTax is the federal plus provincial estimate for one province.
type CombinedTax struct {
	Province       string       `json:"province"`
	TaxableIncome  money.Amount `json:"taxable_income"`
	FederalTax     money.Amount `json:"federal_tax"`
	ProvincialTax  money.Amount `json:"provincial_tax"`
	TotalTax       money.Amount `json:"total_estimated_tax"`
	AverageRatePct money.Amount `json:"average_tax_rate"`
}

// CombinedFederalProvincial computes both federal and provincial tax on
// taxable income. Provinces without a configured schedule are a
// configuration error, not a zero-tax guess.
func (e *Engine) CombinedFederalProvincial(taxableIncome decimal.Decimal, province string) (*CombinedTax, error) {
	income := money.Cents(taxableIncome)

	provBrackets, err := e.provincialBrackets(province)
	if err != nil {
		return nil, err
	}

	fed := ProgressiveTax(income, e.cfg.FederalBrackets)
	prov := ProgressiveTax(income, provBrackets)
	total := fed.Add(prov)

	avg := money.Zero
	if income.IsPositive() {
		avg = money.Cents(total.Div(income).Mul(decimal.NewFromInt(100)))
	}

	return &CombinedTax{
		Province:       province,
		TaxableIncome:  money.Amount{Decimal: income},
		FederalTax:     money.Amount{Decimal: fed},
		ProvincialTax:  money.Amount{Decimal: prov},
		TotalTax:       money.Amount{Decimal: total},
		AverageRatePct: money.Amount{Decimal: avg},
	}, nil
}

func (e *Engine) provincialBrackets(province string) ([]registry.Bracket, error) {
	b, ok := e.cfg.ProvincialBrackets[province]
	if !ok {
		return nil, &registry.ConfigError{Msg: "no provincial brackets configured for " + province}
	}
	return b, nil
}
