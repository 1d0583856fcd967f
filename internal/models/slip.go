package models

import "github.com/eightlaw/tax-slip-engine/internal/money"

// SlipType identifies the supported slip layouts.
type SlipType string

const (
	SlipT4      SlipType = "t4"
	SlipInvoice SlipType = "invoice"
)

// T4Fields holds the monetary boxes recovered from a T4 slip.
//
// Every box is a pointer: nil means the extractor could not confidently
// resolve the field. Absence is an expected outcome of scanning lossy OCR
// text, not an error.
type T4Fields struct {
	Employer         string        `json:"employer,omitempty"`
	Year             int           `json:"year,omitempty"`
	Box14Income      *money.Amount `json:"box_14_income"`
	Box16CPP         *money.Amount `json:"box_16_cpp"`
	Box18EI          *money.Amount `json:"box_18_ei"`
	Box22TaxDeducted *money.Amount `json:"box_22_tax_deducted"`
}

// InvoiceItem is a best-effort line item recovered from invoice text.
type InvoiceItem struct {
	Description string       `json:"description"`
	Amount      money.Amount `json:"amount"`
}

// InvoiceFields holds header fields and totals recovered from an invoice.
type InvoiceFields struct {
	InvoiceDate   string        `json:"invoice_date,omitempty"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	SoldBy        string        `json:"sold_by,omitempty"`
	GSTNumber     string        `json:"gst_hst_number,omitempty"`
	PSTNumber     string        `json:"pst_number,omitempty"`
	TotalPayable  *money.Amount `json:"total_payable"`
	GSTAmount     *money.Amount `json:"gst_hst_amount"`
	PSTAmount     *money.Amount `json:"pst_amount"`
	Items         []InvoiceItem `json:"items,omitempty"`
}

// ExtractionResult is the outcome of running an extractor over raw text.
// Exactly one of T4/Invoice is set, matching DocType. Scores carries the
// detection evidence when auto-detection was used.
type ExtractionResult struct {
	DocType SlipType           `json:"doc_type"`
	T4      *T4Fields          `json:"t4,omitempty"`
	Invoice *InvoiceFields     `json:"invoice,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
}
