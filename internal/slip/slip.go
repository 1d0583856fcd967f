// Package slip recovers structured monetary fields from noisy OCR text of
// known tax-slip layouts. Extraction is best-effort by design: it never
// fails on malformed input, and any field that cannot be confidently
// resolved is reported as absent rather than guessed.
package slip

import (
	"fmt"

	"github.com/eightlaw/tax-slip-engine/internal/models"
)

// Extractor defines the interface for slip field extractors.
type Extractor interface {
	// Extract takes raw OCR text and returns the recovered fields.
	Extract(text string) (*models.ExtractionResult, error)
	// SlipName returns the human-readable slip layout name.
	SlipName() string
}

// New returns the extractor for the given slip type.
func New(slipType models.SlipType) (Extractor, error) {
	switch slipType {
	case models.SlipT4:
		return &T4Extractor{}, nil
	case models.SlipInvoice:
		return &InvoiceExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported slip type: %q", slipType)
	}
}
