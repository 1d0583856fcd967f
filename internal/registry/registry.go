// Package registry loads the versioned, jurisdiction-scoped tax rules file
// and exposes typed, validated lookups. The registry is immutable once
// loaded: using wrong tax rules is worse than failing loudly, so every
// problem surfaces as a *ConfigError and nothing is silently defaulted.
package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the registry file shipped with the engine.
const DefaultPath = "configs/rules_ca.yaml"

// ConfigError reports a malformed registry, an unknown tax year, or a
// failed path lookup. It is always fatal to the call that triggered it.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "rules registry: " + e.Msg
}

func errf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Bracket is one progressive tax bracket: income up to UpTo is taxed at
// Rate. The top bracket of a schedule may carry NoLimit instead of a bound.
type Bracket struct {
	UpTo    decimal.Decimal
	NoLimit bool
	Rate    decimal.Decimal
}

// RRSPRules holds the contribution-room parameters for a year.
type RRSPRules struct {
	PercentLimit decimal.Decimal
	DollarLimit  decimal.Decimal
}

// YearConfig is the validated rule set for a single tax year.
type YearConfig struct {
	TaxYear                   int
	FederalBrackets           []Bracket
	ProvincialBrackets        map[string][]Bracket
	CapitalGainsInclusionRate decimal.Decimal
	RRSP                      RRSPRules

	raw map[string]any
}

// Registry is the full parsed rules file. Read-only after Load.
type Registry struct {
	SchemaVersion string
	Jurisdiction  string
	Module        string

	years map[int]*YearConfig
}

// Load reads and validates a registry file. YAML and JSON are accepted;
// the extension picks the decoder.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errf("cannot read %s: %v", path, err)
	}

	var tree map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, errf("invalid JSON in %s: %v", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, errf("invalid YAML in %s: %v", path, err)
		}
	}

	return fromTree(normalizeKeys(tree).(map[string]any))
}

// normalizeKeys rewrites every mapping in the tree to string keys. YAML
// year keys are integers (`2024:`), which yaml.v3 decodes as map[any]any;
// the walk below and ReadDecimal both require map[string]any throughout.
func normalizeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = normalizeKeys(inner)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[fmt.Sprint(k)] = normalizeKeys(inner)
		}
		return m
	case []any:
		for i, inner := range val {
			val[i] = normalizeKeys(inner)
		}
		return val
	default:
		return v
	}
}

func fromTree(tree map[string]any) (*Registry, error) {
	reg := &Registry{
		SchemaVersion: stringAt(tree, "schema_version"),
		Jurisdiction:  stringAt(tree, "jurisdiction"),
		Module:        stringAt(tree, "module"),
		years:         map[int]*YearConfig{},
	}

	yearsRaw, ok := tree["years"].(map[string]any)
	if !ok {
		return nil, errf("missing or invalid 'years' section")
	}

	for key, val := range yearsRaw {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, errf("year key %q is not an integer", key)
		}
		cfgRaw, ok := val.(map[string]any)
		if !ok {
			return nil, errf("year %d: config is not an object", year)
		}
		yc, err := buildYear(year, cfgRaw)
		if err != nil {
			return nil, err
		}
		reg.years[year] = yc
	}

	if len(reg.years) == 0 {
		return nil, errf("registry declares no tax years")
	}

	return reg, nil
}

// Years lists the configured tax years in ascending order.
func (r *Registry) Years() []int {
	years := make([]int, 0, len(r.years))
	for y := range r.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearConfig returns the rules for a tax year. There is no fallback to a
// nearest year: interpolating between rule sets is ambiguous and rejected.
func (r *Registry) YearConfig(year int) (*YearConfig, error) {
	yc, ok := r.years[year]
	if !ok {
		return nil, errf("unknown tax year %d", year)
	}
	return yc, nil
}

// ReadDecimal navigates the year's raw configuration by dotted key path
// (e.g. "rrsp.dollar_limit") and returns the value as a decimal.
func (y *YearConfig) ReadDecimal(dottedPath string) (decimal.Decimal, error) {
	cur := any(y.raw)
	for _, part := range strings.Split(dottedPath, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return decimal.Zero, errf("path not found: %s", dottedPath)
		}
		cur, ok = node[part]
		if !ok {
			return decimal.Zero, errf("path not found: %s", dottedPath)
		}
	}
	d, noLimit, err := toDecimal(cur, dottedPath)
	if err != nil {
		return decimal.Zero, err
	}
	if noLimit {
		return decimal.Zero, errf("value at %s is the infinity sentinel, not a number", dottedPath)
	}
	return d, nil
}

func buildYear(year int, raw map[string]any) (*YearConfig, error) {
	yc := &YearConfig{
		TaxYear:            year,
		ProvincialBrackets: map[string][]Bracket{},
		raw:                raw,
	}

	fed, ok := mapAt(raw, "federal")
	if !ok {
		return nil, errf("year %d: missing 'federal' section", year)
	}
	brackets, err := buildBrackets(fed["brackets"], fmt.Sprintf("year %d federal", year))
	if err != nil {
		return nil, err
	}
	yc.FederalBrackets = brackets

	cg, ok := mapAt(raw, "capital_gains")
	if !ok {
		return nil, errf("year %d: missing 'capital_gains' section", year)
	}
	rate, noLimit, err := toDecimal(cg["default_inclusion_rate"], fmt.Sprintf("year %d capital_gains.default_inclusion_rate", year))
	if err != nil {
		return nil, err
	}
	if noLimit || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errf("year %d: capital gains inclusion rate must be in [0,1]", year)
	}
	yc.CapitalGainsInclusionRate = rate

	if rrsp, ok := mapAt(raw, "rrsp"); ok {
		pct, _, err := toDecimal(rrsp["percent_limit"], fmt.Sprintf("year %d rrsp.percent_limit", year))
		if err != nil {
			return nil, err
		}
		dollar, _, err := toDecimal(rrsp["dollar_limit"], fmt.Sprintf("year %d rrsp.dollar_limit", year))
		if err != nil {
			return nil, err
		}
		yc.RRSP = RRSPRules{PercentLimit: pct, DollarLimit: dollar}
	}

	if prov, ok := mapAt(raw, "provincial"); ok {
		for code, val := range prov {
			provMap, ok := val.(map[string]any)
			if !ok {
				return nil, errf("year %d: provincial %s is not an object", year, code)
			}
			pb, err := buildBrackets(provMap["brackets"], fmt.Sprintf("year %d provincial %s", year, code))
			if err != nil {
				return nil, err
			}
			yc.ProvincialBrackets[strings.ToUpper(code)] = pb
		}
	}

	return yc, nil
}

func buildBrackets(v any, where string) ([]Bracket, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, errf("%s: 'brackets' must be a non-empty list", where)
	}

	brackets := make([]Bracket, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, errf("%s: bracket %d is not an object", where, i)
		}
		upTo, noLimit, err := toDecimal(entry["up_to"], fmt.Sprintf("%s bracket %d up_to", where, i))
		if err != nil {
			return nil, err
		}
		rate, rateNoLimit, err := toDecimal(entry["rate"], fmt.Sprintf("%s bracket %d rate", where, i))
		if err != nil {
			return nil, err
		}
		if rateNoLimit || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, errf("%s: bracket %d rate must be in [0,1]", where, i)
		}
		brackets = append(brackets, Bracket{UpTo: upTo, NoLimit: noLimit, Rate: rate})
	}

	// Upper bounds must be strictly increasing, and the infinity sentinel
	// may only terminate the schedule.
	for i, b := range brackets {
		if b.NoLimit && i != len(brackets)-1 {
			return nil, errf("%s: infinity bound allowed only on the last bracket", where)
		}
		if i > 0 && !b.NoLimit {
			prev := brackets[i-1]
			if prev.NoLimit || !b.UpTo.GreaterThan(prev.UpTo) {
				return nil, errf("%s: bracket bounds must be strictly increasing", where)
			}
		}
	}

	return brackets, nil
}

// toDecimal converts a raw registry value into a decimal. The literal
// strings "inf" and "infinity" are reported via the noLimit flag.
func toDecimal(v any, path string) (d decimal.Decimal, noLimit bool, err error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false, errf("missing numeric value at %s", path)
	case int:
		return decimal.NewFromInt(int64(val)), false, nil
	case int64:
		return decimal.NewFromInt(val), false, nil
	case float64:
		// YAML ".inf" arrives as a float infinity.
		if math.IsInf(val, 1) {
			return decimal.Zero, true, nil
		}
		if math.IsInf(val, -1) || math.IsNaN(val) {
			return decimal.Zero, false, errf("invalid numeric value at %s: %v", path, val)
		}
		return decimal.NewFromFloat(val), false, nil
	case string:
		s := strings.TrimSpace(strings.ToLower(val))
		if s == "inf" || s == "infinity" {
			return decimal.Zero, true, nil
		}
		d, perr := decimal.NewFromString(strings.TrimSpace(val))
		if perr != nil {
			return decimal.Zero, false, errf("invalid numeric value at %s: %q", path, val)
		}
		return d, false, nil
	default:
		return decimal.Zero, false, errf("invalid numeric value at %s: %v", path, v)
	}
}

func stringAt(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func mapAt(m map[string]any, key string) (map[string]any, bool) {
	sub, ok := m[key].(map[string]any)
	return sub, ok
}
