// Package money defines the fixed-point representation used for all tax
// figures. Floating point is never used for amounts: cumulative binary
// rounding error is a correctness bug in this domain, not a cosmetic one.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is the canonical 0.00 amount.
var Zero = decimal.Zero

// Cents quantizes an amount to 2 decimal places with half-up rounding
// (ties away from zero). Every arithmetic boundary in the engine rounds
// through this function.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Parse converts a human-entered amount like "1,234.56" or "$50,000" into
// a decimal. Currency symbols, grouping commas and surrounding whitespace
// are stripped first.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders an amount as a fixed-point string with exactly two
// fractional digits. This is the only serialization format for money in
// JSON and CSV output.
func String(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Amount is a monetary value at a serialization boundary. It always
// marshals as a fixed-point string with exactly two fractional digits
// (the default decimal marshaler trims trailing zeros, turning 500.00
// into "500" on the wire). Input accepts quoted strings and bare numbers.
// Arithmetic happens on the embedded decimal.
type Amount struct {
	decimal.Decimal
}

// NewAmount quantizes d to cents and wraps it for serialization.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: Cents(d)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.StringFixed(2))), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}
