package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCentsHalfUpRounding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"2.675", "2.68"},
		{"0.00", "0.00"},
		{"999.999", "1000.00"},
		{"500.00", "500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := decimal.RequireFromString(tt.input)
			got := String(Cents(d))
			if got != tt.expected {
				t.Errorf("Cents(%s): got %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"25.99", "25.99", false},
		{"1,234.56", "1234.56", false},
		{"$50,000", "50000.00", false},
		{" 25.99 ", "25.99", false},
		{"-25.99", "-25.99", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if String(got) != tt.expected {
				t.Errorf("got %s, want %s", String(got), tt.expected)
			}
		})
	}
}

func TestStringAlwaysTwoDecimals(t *testing.T) {
	d := decimal.RequireFromString("7500")
	if got := String(d); got != "7500.00" {
		t.Errorf("got %q, want %q", got, "7500.00")
	}
}

func TestAmountMarshalsFixedPoint(t *testing.T) {
	// Trailing zeros must survive the wire: 500.00 serializes as "500.00",
	// never "500".
	tests := []struct {
		input    string
		expected string
	}{
		{"500.00", `"500.00"`},
		{"500", `"500.00"`},
		{"1234.56", `"1234.56"`},
		{"0", `"0.00"`},
		{"-42.10", `"-42.10"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			data, err := json.Marshal(NewAmount(decimal.RequireFromString(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("got %s, want %s", data, tt.expected)
			}
		})
	}
}

func TestAmountUnmarshalAcceptsStringsAndNumbers(t *testing.T) {
	for _, raw := range []string{`"1234.56"`, `1234.56`} {
		var a Amount
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if a.StringFixed(2) != "1234.56" {
			t.Errorf("unmarshal %s: got %s, want 1234.56", raw, a.StringFixed(2))
		}
	}
}
