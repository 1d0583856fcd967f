package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
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
          - { up_to: 51446.00, rate: 0.0505 }
          - { up_to: inf, rate: 0.1316 }
`

func writeRegistry(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write registry file: %v", err)
	}
	return path
}

func TestLoadValidYAML(t *testing.T) {
	reg, err := Load(writeRegistry(t, "rules.yaml", validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reg.Jurisdiction != "CA" {
		t.Errorf("jurisdiction: got %q, want CA", reg.Jurisdiction)
	}

	yc, err := reg.YearConfig(2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(yc.FederalBrackets) != 3 {
		t.Fatalf("expected 3 federal brackets, got %d", len(yc.FederalBrackets))
	}
	top := yc.FederalBrackets[2]
	if !top.NoLimit {
		t.Error("top bracket should carry the infinity sentinel")
	}
	if top.Rate.String() != "0.29" {
		t.Errorf("top rate: got %s, want 0.29", top.Rate)
	}
	if yc.CapitalGainsInclusionRate.String() != "0.5" {
		t.Errorf("inclusion rate: got %s, want 0.5", yc.CapitalGainsInclusionRate)
	}
	if _, ok := yc.ProvincialBrackets["ON"]; !ok {
		t.Error("expected ON provincial brackets")
	}
}

func TestLoadValidJSON(t *testing.T) {
	content := `{
  "schema_version": "1.0",
  "jurisdiction": "CA",
  "module": "t1_federal",
  "years": {
    "2024": {
      "federal": {
        "brackets": [
          {"up_to": 50000.00, "rate": 0.15},
          {"up_to": "infinity", "rate": 0.29}
        ]
      },
      "capital_gains": {"default_inclusion_rate": 0.5}
    }
  }
}`
	reg, err := Load(writeRegistry(t, "rules.json", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	yc, err := reg.YearConfig(2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !yc.FederalBrackets[1].NoLimit {
		t.Error("expected infinity sentinel on second bracket")
	}
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "years: [",
		},
		{
			name: "non-numeric rate",
			content: `
years:
  2024:
    federal:
      brackets:
        - { up_to: 50000, rate: lots }
    capital_gains:
      default_inclusion_rate: 0.5
`,
		},
		{
			name: "rate above one",
			content: `
years:
  2024:
    federal:
      brackets:
        - { up_to: 50000, rate: 1.5 }
    capital_gains:
      default_inclusion_rate: 0.5
`,
		},
		{
			name: "non-increasing bounds",
			content: `
years:
  2024:
    federal:
      brackets:
        - { up_to: 50000, rate: 0.15 }
        - { up_to: 40000, rate: 0.26 }
    capital_gains:
      default_inclusion_rate: 0.5
`,
		},
		{
			name: "infinity before last bracket",
			content: `
years:
  2024:
    federal:
      brackets:
        - { up_to: inf, rate: 0.15 }
        - { up_to: 50000, rate: 0.26 }
    capital_gains:
      default_inclusion_rate: 0.5
`,
		},
		{
			name: "missing capital gains",
			content: `
years:
  2024:
    federal:
      brackets:
        - { up_to: inf, rate: 0.15 }
`,
		},
		{
			name:    "no years",
			content: "years: {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeRegistry(t, "rules.yaml", tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *ConfigError, got %T", err)
			}
		})
	}
}

func TestLoadShippedRules(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", DefaultPath))
	if err != nil {
		t.Fatalf("shipped registry must load: %v", err)
	}

	years := reg.Years()
	want := []int{2023, 2024}
	if len(years) != len(want) || years[0] != want[0] || years[1] != want[1] {
		t.Fatalf("years: got %v, want %v", years, want)
	}

	yc, err := reg.YearConfig(2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(yc.FederalBrackets) != 5 {
		t.Errorf("expected 5 federal brackets for 2024, got %d", len(yc.FederalBrackets))
	}
	if !yc.FederalBrackets[4].NoLimit {
		t.Error("top federal bracket should carry the infinity sentinel")
	}
	for _, province := range []string{"ON", "BC", "AB"} {
		if _, ok := yc.ProvincialBrackets[province]; !ok {
			t.Errorf("expected %s provincial brackets", province)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestUnknownYearNoFallback(t *testing.T) {
	reg, err := Load(writeRegistry(t, "rules.yaml", validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = reg.YearConfig(2019)
	if err == nil {
		t.Fatal("expected error for unconfigured year, got nil")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestReadDecimal(t *testing.T) {
	reg, err := Load(writeRegistry(t, "rules.yaml", validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	yc, err := reg.YearConfig(2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path     string
		expected string
		wantErr  bool
	}{
		{"rrsp.dollar_limit", "31560", false},
		{"rrsp.percent_limit", "0.18", false},
		{"capital_gains.default_inclusion_rate", "0.5", false},
		{"rrsp.nope", "", true},
		{"missing.path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := yc.ReadDecimal(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestYearsSorted(t *testing.T) {
	reg, err := fromTree(map[string]any{
		"years": map[string]any{
			"2024": yearStub(),
			"2022": yearStub(),
			"2023": yearStub(),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	years := reg.Years()
	want := []int{2022, 2023, 2024}
	for i, y := range want {
		if years[i] != y {
			t.Fatalf("years: got %v, want %v", years, want)
		}
	}
}

func yearStub() map[string]any {
	return map[string]any{
		"federal": map[string]any{
			"brackets": []any{
				map[string]any{"up_to": "inf", "rate": 0.15},
			},
		},
		"capital_gains": map[string]any{"default_inclusion_rate": 0.5},
	}
}
