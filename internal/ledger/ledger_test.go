package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/eightlaw/tax-slip-engine/internal/money"
)

var entryDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestBalancedEntry(t *testing.T) {
	entry := NewEntry(entryDate, "Office chair purchase", []JournalLine{
		{AccountCode: "6100", AccountName: "Office Supplies", Debit: money.NewAmount(money.MustParse("339.00"))},
		{AccountCode: "2100", AccountName: "GST/HST Payable", Debit: money.NewAmount(money.MustParse("44.07"))},
		{AccountCode: "1000", AccountName: "Cash", Credit: money.NewAmount(money.MustParse("383.07"))},
	})

	if !entry.IsBalanced() {
		t.Errorf("entry should balance: debits=%s credits=%s",
			money.String(entry.TotalDebits()), money.String(entry.TotalCredits()))
	}

	ok, violations := entry.Validate(DefaultChartOfAccounts())
	if !ok {
		t.Errorf("expected valid entry, violations: %v", violations)
	}
}

func TestUnbalancedEntry(t *testing.T) {
	entry := NewEntry(entryDate, "Lopsided", []JournalLine{
		{AccountCode: "1000", Debit: money.NewAmount(money.MustParse("100.00"))},
		{AccountCode: "4000", Credit: money.NewAmount(money.MustParse("90.00"))},
	})

	if entry.IsBalanced() {
		t.Error("entry should not balance")
	}

	ok, violations := entry.Validate(DefaultChartOfAccounts())
	if ok {
		t.Fatal("expected invalid entry")
	}
	if !containsViolation(violations, "not balanced") {
		t.Errorf("expected a balance violation, got %v", violations)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	entry := NewEntry(entryDate, "", []JournalLine{
		{AccountCode: "9999", Debit: money.NewAmount(money.MustParse("50.00")), Credit: money.NewAmount(money.MustParse("50.00"))},
		{AccountCode: "1000"},
		{AccountCode: "1000", Debit: money.NewAmount(money.MustParse("-10.00"))},
	})

	ok, violations := entry.Validate(DefaultChartOfAccounts())
	if ok {
		t.Fatal("expected invalid entry")
	}

	wantFragments := []string{
		"description is empty",
		"both debit and credit",
		"zero debit and zero credit",
		"cannot be negative",
		"not in chart of accounts",
	}
	for _, frag := range wantFragments {
		if !containsViolation(violations, frag) {
			t.Errorf("missing violation %q in %v", frag, violations)
		}
	}
}

func TestValidateEmptyLines(t *testing.T) {
	entry := NewEntry(entryDate, "No lines", nil)
	ok, violations := entry.Validate(nil)
	if ok {
		t.Fatal("expected invalid entry")
	}
	if !containsViolation(violations, "no lines") {
		t.Errorf("expected a no-lines violation, got %v", violations)
	}
}

func TestValidateWithoutChartSkipsAccountCheck(t *testing.T) {
	entry := NewEntry(entryDate, "Unknown accounts allowed", []JournalLine{
		{AccountCode: "9999", Debit: money.NewAmount(money.MustParse("10.00"))},
		{AccountCode: "8888", Credit: money.NewAmount(money.MustParse("10.00"))},
	})
	ok, violations := entry.Validate(nil)
	if !ok {
		t.Errorf("expected valid entry without a chart, violations: %v", violations)
	}
}

func TestNewEntryQuantizesToCents(t *testing.T) {
	entry := NewEntry(entryDate, "Rounding", []JournalLine{
		{AccountCode: "1000", Debit: money.Amount{Decimal: money.MustParse("10.005")}},
		{AccountCode: "4000", Credit: money.NewAmount(money.MustParse("10.01"))},
	})
	if got := entry.Lines[0].Debit.StringFixed(2); got != "10.01" {
		t.Errorf("debit: got %s, want 10.01", got)
	}
	if !entry.IsBalanced() {
		t.Error("quantized entry should balance")
	}
	if entry.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected a generated entry id")
	}
}

func TestDefaultChartOfAccounts(t *testing.T) {
	coa := DefaultChartOfAccounts()
	cash, ok := coa["1000"]
	if !ok {
		t.Fatal("expected cash account 1000")
	}
	if cash.Type != "ASSET" || cash.NormalBalance != "DEBIT" {
		t.Errorf("cash account: got %+v", cash)
	}
	if _, ok := coa["2100"]; !ok {
		t.Error("expected GST/HST payable account 2100")
	}
}

func containsViolation(violations []string, fragment string) bool {
	for _, v := range violations {
		if strings.Contains(v, fragment) {
			return true
		}
	}
	return false
}
