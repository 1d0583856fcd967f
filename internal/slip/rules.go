package slip

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// Logical field names for the T4 layout. Downstream consumers map these
// to ledger entries, so they must match exactly.
const (
	FieldBox14Income      = "box_14_income"
	FieldBox16CPP         = "box_16_cpp"
	FieldBox18EI          = "box_18_ei"
	FieldBox22TaxDeducted = "box_22_tax_deducted"
)

// boxFields maps T4 box identifiers to logical field names, in the order
// they are tried during the explicit scan.
var boxFields = []struct {
	id    string
	field string
}{
	{"14", FieldBox14Income},
	{"22", FieldBox22TaxDeducted},
	{"16", FieldBox16CPP},
	{"18", FieldBox18EI},
}

// scanTokens walks the token stream once, left to right. A token matching
// an unresolved box identifier claims the following token(s) as that
// field's value; everything else that the amount sub-rules can recover
// goes to the free-floating pool in encounter order.
func scanTokens(tokens []token) (explicit map[string]decimal.Decimal, pool []decimal.Decimal) {
	explicit = map[string]decimal.Decimal{}

	for i := 0; i < len(tokens); {
		t := tokens[i]

		// Box identifiers appear as bare 2-digit integers on the slip.
		if !t.isDecimal && t.digits() == 2 {
			if field := boxFieldFor(t.raw); field != "" {
				if _, done := explicit[field]; !done {
					if amount, consumed := consumeAmount(tokens, i+1); consumed > 0 {
						explicit[field] = money.Cents(amount)
						i += 1 + consumed
						continue
					}
				}
			}
			i++
			continue
		}

		// Years ("2024") are metadata, not amounts. Skipping them here
		// also stops the join rule from welding a year onto a following
		// 2-digit box identifier.
		if !t.isDecimal && looksLikeYear(t.raw) {
			i++
			continue
		}

		if amount, consumed := consumeAmount(tokens, i); consumed > 0 {
			pool = append(pool, money.Cents(amount))
			i += consumed
			continue
		}
		i++
	}

	return explicit, pool
}

func looksLikeYear(raw string) bool {
	return len(raw) == 4 && (strings.HasPrefix(raw, "19") || strings.HasPrefix(raw, "20"))
}

func boxFieldFor(id string) string {
	for _, bf := range boxFields {
		if bf.id == id {
			return bf.field
		}
	}
	return ""
}

// Pandemic-relief benefit amounts (CERB and friends were paid in flat
// $500/week installments). These show up on slips from the relief years
// but are not ordinary income figures, so they are removed from the pool
// before inference runs.
var reliefPeriodAmounts = []decimal.Decimal{
	money.MustParse("500.00"),
	money.MustParse("1000.00"),
	money.MustParse("1500.00"),
	money.MustParse("2000.00"),
}

// filterExcluded drops known-irrelevant categories from the pool.
func filterExcluded(pool []decimal.Decimal) []decimal.Decimal {
	kept := pool[:0]
	for _, v := range pool {
		excluded := false
		for _, relief := range reliefPeriodAmounts {
			if v.Equal(relief) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, v)
		}
	}
	return kept
}

// Candidate-selection bounds for pool inference. Tuned to the CRA T4
// layout observed in sample scans; making these data-driven per layout is
// an extension point, not done yet.
var (
	// No single employment income figure above this is credible on a T4.
	incomeCeiling = money.MustParse("500000.00")
	// EI premiums are capped by statute; anything above this is not box 18.
	eiPremiumCap = money.MustParse("1100.00")
	// CPP contributions cap, with headroom for CPP2.
	cppContributionCap = money.MustParse("4500.00")
)

// inferenceRule resolves one field from the free-floating pool. Rules are
// evaluated in fixed priority order, and each claims its value from the
// pool so later rules cannot reuse it. Keeping them as a named list makes
// the tie-break behavior auditable rule by rule.
type inferenceRule struct {
	name  string
	field string
	pick  func(pool []decimal.Decimal, resolved map[string]decimal.Decimal) (decimal.Decimal, bool)
}

var t4InferenceRules = []inferenceRule{
	{
		name:  "gross-income-is-largest-below-ceiling",
		field: FieldBox14Income,
		pick: func(pool []decimal.Decimal, _ map[string]decimal.Decimal) (decimal.Decimal, bool) {
			return largestBelow(pool, incomeCeiling)
		},
	},
	{
		name:  "tax-deducted-is-largest-below-income",
		field: FieldBox22TaxDeducted,
		pick: func(pool []decimal.Decimal, resolved map[string]decimal.Decimal) (decimal.Decimal, bool) {
			income, ok := resolved[FieldBox14Income]
			if !ok {
				return decimal.Zero, false
			}
			return largestBelow(pool, income)
		},
	},
	{
		name:  "ei-premiums-are-smallest-under-cap",
		field: FieldBox18EI,
		pick: func(pool []decimal.Decimal, _ map[string]decimal.Decimal) (decimal.Decimal, bool) {
			return smallestPositiveAtMost(pool, eiPremiumCap)
		},
	},
	{
		name:  "cpp-is-between-ei-and-tax-deducted",
		field: FieldBox16CPP,
		pick: func(pool []decimal.Decimal, resolved map[string]decimal.Decimal) (decimal.Decimal, bool) {
			v, ok := largestAtMost(pool, cppContributionCap)
			if !ok {
				return decimal.Zero, false
			}
			if ei, has := resolved[FieldBox18EI]; has && !v.GreaterThan(ei) {
				return decimal.Zero, false
			}
			if tax, has := resolved[FieldBox22TaxDeducted]; has && !v.LessThan(tax) {
				return decimal.Zero, false
			}
			return v, true
		},
	},
}

// inferFields applies the rules in order to every field the explicit scan
// left unresolved. The pool shrinks as values are claimed.
func inferFields(pool []decimal.Decimal, resolved map[string]decimal.Decimal) {
	for _, rule := range t4InferenceRules {
		if _, done := resolved[rule.field]; done {
			continue
		}
		v, ok := rule.pick(pool, resolved)
		if !ok {
			continue
		}
		resolved[rule.field] = v
		pool = removeFirst(pool, v)
	}
}

func largestBelow(pool []decimal.Decimal, ceiling decimal.Decimal) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false
	for _, v := range pool {
		if v.IsPositive() && v.LessThan(ceiling) && (!found || v.GreaterThan(best)) {
			best = v
			found = true
		}
	}
	return best, found
}

func largestAtMost(pool []decimal.Decimal, limit decimal.Decimal) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false
	for _, v := range pool {
		if v.IsPositive() && !v.GreaterThan(limit) && (!found || v.GreaterThan(best)) {
			best = v
			found = true
		}
	}
	return best, found
}

func smallestPositiveAtMost(pool []decimal.Decimal, limit decimal.Decimal) (decimal.Decimal, bool) {
	best := decimal.Zero
	found := false
	for _, v := range pool {
		if v.IsPositive() && !v.GreaterThan(limit) && (!found || v.LessThan(best)) {
			best = v
			found = true
		}
	}
	return best, found
}

func removeFirst(pool []decimal.Decimal, v decimal.Decimal) []decimal.Decimal {
	for i, p := range pool {
		if p.Equal(v) {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}
