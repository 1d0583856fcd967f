// Package ledger implements double-entry journal entries and their
// validation. Validation never aborts mid-computation: every violation is
// collected into a human-readable list and the caller checks the flag.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eightlaw/tax-slip-engine/internal/money"
)

// Account is one entry in the chart of accounts.
type Account struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`           // ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE
	NormalBalance string `json:"normal_balance"` // DEBIT or CREDIT
}

// JournalLine is one side of a journal entry. A line carries either a
// debit or a credit, never both.
type JournalLine struct {
	AccountCode string       `json:"account_code"`
	AccountName string       `json:"account_name"`
	Debit       money.Amount `json:"debit"`
	Credit      money.Amount `json:"credit"`
	Memo        string       `json:"memo,omitempty"`
}

// JournalEntry is a dated set of journal lines that must balance.
type JournalEntry struct {
	ID          uuid.UUID      `json:"id"`
	EntryDate   time.Time      `json:"entry_date"`
	Description string         `json:"description"`
	Lines       []JournalLine  `json:"lines"`
	Source      string         `json:"source,omitempty"`
	References  map[string]any `json:"references,omitempty"`
}

// NewEntry builds a journal entry with a fresh identifier. Amounts are
// quantized to cents on the way in.
func NewEntry(entryDate time.Time, description string, lines []JournalLine) *JournalEntry {
	for i := range lines {
		lines[i].Debit = money.NewAmount(lines[i].Debit.Decimal)
		lines[i].Credit = money.NewAmount(lines[i].Credit.Decimal)
	}
	return &JournalEntry{
		ID:          uuid.New(),
		EntryDate:   entryDate,
		Description: description,
		Lines:       lines,
		Source:      "user",
	}
}

// TotalDebits sums the debit side of the entry.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, ln := range e.Lines {
		total = total.Add(ln.Debit.Decimal)
	}
	return money.Cents(total)
}

// TotalCredits sums the credit side of the entry.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, ln := range e.Lines {
		total = total.Add(ln.Credit.Decimal)
	}
	return money.Cents(total)
}

// IsBalanced reports whether debits equal credits.
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}

// Validate checks the entry against double-entry rules and, when a chart
// of accounts is given, against known account codes. It returns the
// validity flag and the full list of violations.
func (e *JournalEntry) Validate(chartOfAccounts map[string]Account) (bool, []string) {
	var violations []string

	if len(e.Description) == 0 {
		violations = append(violations, "entry description is empty")
	}
	if len(e.Lines) == 0 {
		violations = append(violations, "entry has no lines")
		return false, violations
	}

	for i, ln := range e.Lines {
		if ln.Debit.IsNegative() || ln.Credit.IsNegative() {
			violations = append(violations, fmt.Sprintf("line %d: debit/credit cannot be negative", i))
		}
		if ln.Debit.IsPositive() && ln.Credit.IsPositive() {
			violations = append(violations, fmt.Sprintf("line %d: a single line cannot carry both debit and credit", i))
		}
		if ln.Debit.IsZero() && ln.Credit.IsZero() {
			violations = append(violations, fmt.Sprintf("line %d: has zero debit and zero credit", i))
		}
		if chartOfAccounts != nil {
			if _, ok := chartOfAccounts[ln.AccountCode]; !ok {
				violations = append(violations, fmt.Sprintf("line %d: account code %s not in chart of accounts", i, ln.AccountCode))
			}
		}
	}

	if !e.IsBalanced() {
		violations = append(violations, fmt.Sprintf(
			"entry not balanced: debits=%s credits=%s",
			money.String(e.TotalDebits()), money.String(e.TotalCredits())))
	}

	return len(violations) == 0, violations
}
