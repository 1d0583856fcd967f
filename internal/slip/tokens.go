package slip

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// token is one numeric token recovered from the slip text, in encounter
// order. A token is either a decimal already carrying two fractional
// digits, or a bare integer whose digit count drives the join/split rules.
type token struct {
	raw       string
	isDecimal bool
	value     decimal.Decimal
}

func (t token) digits() int {
	return len(t.raw)
}

// Footer boilerplate that follows the monetary boxes on CRA slips. Text
// past the first marker is discarded before scanning: the fine print is
// full of numbers (form codes, phone numbers, act citations) that would
// pollute the free-floating pool.
var boilerplateMarkers = []string{
	"for internal use only",
	"protected b",
	"protégé b",
	"privacy notice",
	"see the back",
	"voir au verso",
	"usage exclusif",
}

// isolateRegion truncates the text at the first boilerplate marker.
func isolateRegion(text string) string {
	lower := strings.ToLower(text)
	cut := len(text)
	for _, marker := range boilerplateMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return text[:cut]
}

var (
	decimalTokenPattern = regexp.MustCompile(`^\d+\.\d{2}$`)
	integerTokenPattern = regexp.MustCompile(`^\d+$`)
)

// sanitizeAmounts fixes common OCR misreads before tokenizing. Tesseract
// often renders periods as semicolons or colons inside numbers, e.g.
// "65,000; 00" for "65,000.00".
func sanitizeAmounts(text string) string {
	text = regexp.MustCompile(`(\d);(\s*)(\d)`).ReplaceAllString(text, "$1.$3")
	text = regexp.MustCompile(`(\d):(\d)`).ReplaceAllString(text, "$1.$2")
	text = regexp.MustCompile(`(\d):(\s|$)`).ReplaceAllString(text, "$1$2")
	return text
}

// tokenize flattens the isolated region into an ordered sequence of
// numeric tokens. Currency symbols and grouping commas are stripped;
// anything that is not an integer or a two-fractional-digit decimal after
// cleaning is dropped.
func tokenize(text string) []token {
	var tokens []token
	for _, word := range strings.Fields(sanitizeAmounts(text)) {
		clean := strings.ReplaceAll(word, "$", "")
		clean = strings.ReplaceAll(clean, ",", "")
		clean = strings.Trim(clean, "()[]:;.*#")

		switch {
		case decimalTokenPattern.MatchString(clean):
			v, err := decimal.NewFromString(clean)
			if err != nil {
				continue
			}
			tokens = append(tokens, token{raw: clean, isDecimal: true, value: v})
		case integerTokenPattern.MatchString(clean):
			v, err := decimal.NewFromString(clean)
			if err != nil {
				continue
			}
			tokens = append(tokens, token{raw: clean, value: v})
		}
	}
	return tokens
}

// consumeAmount applies the value sub-rules at position i and returns the
// recovered amount plus how many tokens were consumed. The rules, in
// priority order:
//
//  1. an already-decimal token is taken verbatim;
//  2. an integer ≥ 100 immediately followed by a 2-digit integer is the
//     dollars and cents of one amount split by OCR ("65000 00");
//  3. a squeezed integer of ≥ 5 digits lost its decimal point entirely,
//     so the last two digits are the cents ("6500000").
//
// Returns consumed = 0 when no rule applies.
func consumeAmount(tokens []token, i int) (decimal.Decimal, int) {
	if i >= len(tokens) {
		return decimal.Zero, 0
	}
	t := tokens[i]

	if t.isDecimal {
		return t.value, 1
	}

	hundred := decimal.NewFromInt(100)
	if t.value.GreaterThanOrEqual(hundred) && i+1 < len(tokens) {
		next := tokens[i+1]
		if !next.isDecimal && next.digits() == 2 {
			joined, err := decimal.NewFromString(t.raw + "." + next.raw)
			if err == nil {
				return joined, 2
			}
		}
	}

	if t.digits() >= 5 {
		split, err := decimal.NewFromString(t.raw[:t.digits()-2] + "." + t.raw[t.digits()-2:])
		if err == nil {
			return split, 1
		}
	}

	return decimal.Zero, 0
}
