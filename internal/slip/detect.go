package slip

import (
	"fmt"
	"strings"

	"github.com/eightlaw/tax-slip-engine/internal/models"
)

type signal struct {
	term   string
	weight float64
}

// T4 slips carry form vocabulary in English and French.
var t4Signals = []signal{
	{"t4", 2.0},
	{"statement of remuneration paid", 3.0},
	{"box 14", 3.0},
	{"employment income", 2.5},
	{"income tax deducted", 2.5},
	{"cpp contributions", 2.0},
	{"ei premiums", 2.0},
	{"sin", 1.5},
}

var invoiceSignals = []signal{
	{"invoice", 2.0},
	{"facture", 2.0},
	{"invoice #", 3.0},
	{"total payable", 3.0},
	{"total à payer", 3.0},
	{"sold by", 2.0},
	{"vendu par", 2.0},
	{"order #", 2.0},
	{"gst/hst", 2.0},
	{"pst", 2.0},
	{"subtotal", 1.5},
	{"quantity", 1.0},
	{"shipping charges", 1.0},
}

// A document must accumulate at least this much keyword evidence before we
// trust the routing decision.
const minDetectScore = 4.0

// Detect identifies the slip layout from raw text by weighted keyword
// evidence. It returns the scores alongside the decision so callers can
// surface why a document was (or was not) routed.
func Detect(text string) (models.SlipType, map[string]float64, error) {
	t := strings.ToLower(text)

	score := func(signals []signal) float64 {
		var s float64
		for _, sig := range signals {
			if strings.Contains(t, sig.term) {
				s += sig.weight
			}
		}
		return s
	}

	t4Score := score(t4Signals)
	invScore := score(invoiceSignals)
	scores := map[string]float64{
		string(models.SlipT4):      t4Score,
		string(models.SlipInvoice): invScore,
	}

	if t4Score >= minDetectScore && t4Score > invScore {
		return models.SlipT4, scores, nil
	}
	if invScore >= minDetectScore && invScore > t4Score {
		return models.SlipInvoice, scores, nil
	}
	return "", scores, fmt.Errorf("could not detect slip type from document content; specify the slip type explicitly")
}
