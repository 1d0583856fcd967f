package tax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/registry"
)

const testRules = `
schema_version: "1.0"
jurisdiction: CA
module: t1_federal
years:
  2024:
    federal:
      brackets:
        - { up_to: 50000.00, rate: 0.15 }
        - { up_to: 100000.00, rate: 0.26 }
        - { up_to: inf, rate: 0.29 }
    capital_gains:
      default_inclusion_rate: 0.50
    rrsp:
      percent_limit: 0.18
      dollar_limit: 31560.00
    provincial:
      ON:
        brackets:
          - { up_to: 50000.00, rate: 0.05 }
          - { up_to: inf, rate: 0.10 }
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(testRules), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	engine, err := NewEngine(reg, 2024)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func TestNewEngineUnknownYear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(testRules), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	if _, err := NewEngine(reg, 1999); err == nil {
		t.Error("expected error for unconfigured tax year")
	}
}

func TestProgressiveTaxRoundTrip(t *testing.T) {
	// 120,000 over [50k @ 15%, 100k @ 26%, inf @ 29%]:
	// 7,500.00 + 13,000.00 + 5,800.00 = 26,300.00
	engine := newTestEngine(t)

	total, breakdown := engine.FederalTaxBreakdown(money.MustParse("120000.00"))
	if money.String(total) != "26300.00" {
		t.Errorf("total: got %s, want 26300.00", money.String(total))
	}

	wantBrackets := []struct {
		taxable string
		tax     string
	}{
		{"50000.00", "7500.00"},
		{"50000.00", "13000.00"},
		{"20000.00", "5800.00"},
	}
	if len(breakdown) != len(wantBrackets) {
		t.Fatalf("expected %d breakdown entries, got %d", len(wantBrackets), len(breakdown))
	}
	for i, want := range wantBrackets {
		if got := breakdown[i].TaxableInBracket.StringFixed(2); got != want.taxable {
			t.Errorf("bracket %d taxable: got %s, want %s", i, got, want.taxable)
		}
		if got := breakdown[i].Tax.StringFixed(2); got != want.tax {
			t.Errorf("bracket %d tax: got %s, want %s", i, got, want.tax)
		}
	}
}

func TestProgressiveTaxSumOfParts(t *testing.T) {
	engine := newTestEngine(t)

	incomes := []string{"0.00", "100.00", "49999.99", "50000.00", "50000.01", "99999.99", "250000.00"}
	for _, income := range incomes {
		t.Run(income, func(t *testing.T) {
			amount := money.MustParse(income)
			scalar := engine.FederalTax(amount)
			total, breakdown := engine.FederalTaxBreakdown(amount)

			if !scalar.Equal(total) {
				t.Errorf("scalar %s != breakdown total %s", money.String(scalar), money.String(total))
			}

			sum := decimal.Zero
			for _, b := range breakdown {
				sum = sum.Add(b.Tax.Decimal)
			}
			if !sum.Equal(total) {
				t.Errorf("sum of parts %s != total %s", money.String(sum), money.String(total))
			}
		})
	}
}

func TestProgressiveTaxMonotonicAndContinuous(t *testing.T) {
	engine := newTestEngine(t)

	// Walk incomes across both boundaries in one-cent neighborhoods and
	// larger steps; tax must never decrease, and must not jump by more
	// than a cent above the marginal rate's share at any boundary.
	steps := []string{
		"49999.98", "49999.99", "50000.00", "50000.01", "50000.02",
		"99999.98", "99999.99", "100000.00", "100000.01", "100000.02",
	}
	prev := money.Zero
	prevIncome := money.Zero
	oneCent := money.MustParse("0.01")
	for _, income := range steps {
		amount := money.MustParse(income)
		tax := engine.FederalTax(amount)
		if tax.LessThan(prev) {
			t.Fatalf("tax decreased from %s to %s at income %s", money.String(prev), money.String(tax), income)
		}
		if prevIncome.IsPositive() && amount.Sub(prevIncome).Equal(oneCent) {
			// Max marginal rate is 0.29, so one extra cent of income can
			// add at most one cent of tax within rounding tolerance.
			if tax.Sub(prev).GreaterThan(oneCent) {
				t.Fatalf("discontinuity at %s: tax jumped %s", income, money.String(tax.Sub(prev)))
			}
		}
		prev = tax
		prevIncome = amount
	}
}

func TestProgressiveTaxZeroAndNegative(t *testing.T) {
	engine := newTestEngine(t)

	for _, income := range []string{"0.00", "-100.00"} {
		tax := engine.FederalTax(money.MustParse(income))
		if !tax.IsZero() {
			t.Errorf("income %s: expected zero tax, got %s", income, money.String(tax))
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	engine := newTestEngine(t)
	amount := money.MustParse("87654.32")

	first := engine.ClassifyIncome("CAPITAL_GAINS", amount)
	second := engine.ClassifyIncome("CAPITAL_GAINS", amount)

	if first.Status != second.Status ||
		first.IncomeType != second.IncomeType ||
		!first.TaxableAmount.Equal(second.TaxableAmount.Decimal) ||
		first.LogicApplied != second.LogicApplied {
		t.Errorf("identical inputs produced different classifications:\n%+v\n%+v", first, second)
	}

	tax1 := engine.FederalTax(first.TaxableAmount.Decimal)
	tax2 := engine.FederalTax(second.TaxableAmount.Decimal)
	if money.String(tax1) != money.String(tax2) {
		t.Errorf("identical inputs produced different tax: %s vs %s", money.String(tax1), money.String(tax2))
	}
}

func TestCombinedFederalProvincial(t *testing.T) {
	engine := newTestEngine(t)

	combined, err := engine.CombinedFederalProvincial(money.MustParse("60000.00"), "ON")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Federal: 50,000 x 0.15 + 10,000 x 0.26 = 10,100.00
	// ON:      50,000 x 0.05 + 10,000 x 0.10 = 3,500.00
	if got := combined.FederalTax.StringFixed(2); got != "10100.00" {
		t.Errorf("federal: got %s, want 10100.00", got)
	}
	if got := combined.ProvincialTax.StringFixed(2); got != "3500.00" {
		t.Errorf("provincial: got %s, want 3500.00", got)
	}
	if got := combined.TotalTax.StringFixed(2); got != "13600.00" {
		t.Errorf("total: got %s, want 13600.00", got)
	}
}

func TestCombinedUnknownProvince(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.CombinedFederalProvincial(money.MustParse("60000.00"), "QC"); err == nil {
		t.Error("expected error for unconfigured province")
	}
}
