// Package api exposes the engine over HTTP. All monetary fields in
// responses are fixed-point decimal strings; floating point never crosses
// the wire.
package api

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eightlaw/tax-slip-engine/internal/audit"
	"github.com/eightlaw/tax-slip-engine/internal/extractor"
	"github.com/eightlaw/tax-slip-engine/internal/ledger"
	"github.com/eightlaw/tax-slip-engine/internal/models"
	"github.com/eightlaw/tax-slip-engine/internal/money"
	"github.com/eightlaw/tax-slip-engine/internal/registry"
	"github.com/eightlaw/tax-slip-engine/internal/slip"
	"github.com/eightlaw/tax-slip-engine/internal/tax"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server wires the loaded registry and audit trail into the handlers.
type Server struct {
	Registry *registry.Registry
	Trail    *audit.Trail
}

// NewServer builds a Server around a loaded registry.
func NewServer(reg *registry.Registry) *Server {
	return &Server{
		Registry: reg,
		Trail:    audit.NewTrail(),
	}
}

// App constructs the Fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20, // uploaded slip PDFs
	})

	app.Get("/api/health", s.HandleHealth)
	app.Post("/api/tax/calculate", s.HandleCalculate)
	app.Post("/api/tax/rrsp", s.HandleRRSP)
	app.Post("/api/slips/extract", s.HandleExtract)
	app.Post("/api/journal/validate", s.HandleValidateJournal)

	return app
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
		"years":   s.Registry.Years(),
	})
}

// CalculateRequest is the tax calculation input contract. Amount accepts
// both a JSON number and a decimal string.
type CalculateRequest struct {
	IncomeType string       `json:"income_type"`
	Amount     money.Amount `json:"amount"`
	TaxYear    int          `json:"tax_year"`
	Province   string       `json:"province,omitempty"`
	Breakdown  bool         `json:"breakdown,omitempty"`
}

// CalculateResponse reports the classification and the progressive tax.
type CalculateResponse struct {
	Status                  tax.Status       `json:"status"`
	TaxYear                 int              `json:"tax_year"`
	IncomeType              tax.IncomeType   `json:"income_type"`
	OriginalAmount          money.Amount     `json:"original_amount"`
	TaxableAmount           money.Amount     `json:"taxable_amount"`
	LogicApplied            string           `json:"logic_applied"`
	FederalTaxBeforeCredits money.Amount     `json:"federal_tax_before_credits"`
	BracketBreakdown        []tax.BracketTax `json:"bracket_breakdown,omitempty"`
	Combined                *tax.CombinedTax `json:"combined,omitempty"`
}

func (s *Server) HandleCalculate(c *fiber.Ctx) error {
	var req CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	engine, err := tax.NewEngine(s.Registry, req.TaxYear)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	classification := engine.ClassifyIncome(req.IncomeType, req.Amount.Decimal)

	resp := CalculateResponse{
		Status:         classification.Status,
		TaxYear:        classification.TaxYear,
		IncomeType:     classification.IncomeType,
		OriginalAmount: classification.OriginalAmount,
		TaxableAmount:  classification.TaxableAmount,
		LogicApplied:   classification.LogicApplied,
	}

	if req.Breakdown {
		total, breakdown := engine.FederalTaxBreakdown(classification.TaxableAmount.Decimal)
		resp.FederalTaxBeforeCredits = money.Amount{Decimal: total}
		resp.BracketBreakdown = breakdown
	} else {
		resp.FederalTaxBeforeCredits = money.Amount{Decimal: engine.FederalTax(classification.TaxableAmount.Decimal)}
	}

	if req.Province != "" {
		combined, err := engine.CombinedFederalProvincial(classification.TaxableAmount.Decimal, strings.ToUpper(req.Province))
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		resp.Combined = combined
	}

	s.Trail.Append("tax.calculate", resp)

	return c.JSON(resp)
}

// RRSPRequest checks a contribution against deduction room.
type RRSPRequest struct {
	Contribution    money.Amount            `json:"contribution"`
	EstimatedIncome money.Amount            `json:"estimated_income"`
	TaxYear         int                     `json:"tax_year"`
	NOA             *tax.NoticeOfAssessment `json:"noa,omitempty"`
}

func (s *Server) HandleRRSP(c *fiber.Ctx) error {
	var req RRSPRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	engine, err := tax.NewEngine(s.Registry, req.TaxYear)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	advice := engine.CheckRRSPContribution(req.Contribution.Decimal, req.NOA, req.EstimatedIncome.Decimal)
	s.Trail.Append("tax.rrsp_check", advice)

	return c.JSON(advice)
}

// ExtractResponse wraps an extraction result with routing metadata.
type ExtractResponse struct {
	Success   bool                     `json:"success"`
	Error     string                   `json:"error,omitempty"`
	Requested string                   `json:"requested_slip_type,omitempty"`
	Detected  string                   `json:"detected_slip_type,omitempty"`
	Result    *models.ExtractionResult `json:"result,omitempty"`
	RawText   string                   `json:"raw_text,omitempty"`
}

// HandleExtract accepts either an uploaded slip PDF (form field "file")
// or pre-extracted raw text (form field "text"). The optional "slip"
// field forces the layout instead of auto-detecting.
func (s *Server) HandleExtract(c *fiber.Ctx) error {
	text := c.FormValue("text")

	if text == "" {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "no slip provided: upload form field 'file' or pass raw text in 'text'")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
			return writeError(c, fiber.StatusBadRequest, "only PDF uploads are supported")
		}

		tmp, err := os.CreateTemp("", "slip-*.pdf")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "failed to create temp file")
		}
		defer os.Remove(tmp.Name())
		tmp.Close()

		if err := c.SaveFile(fileHeader, tmp.Name()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "failed to save uploaded file")
		}

		text, err = extractor.ExtractTextCombined(tmp.Name())
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
		}
	}

	resp := ExtractResponse{Success: true, RawText: text}

	var detectScores map[string]float64
	slipType := models.SlipType(strings.ToLower(c.FormValue("slip")))
	if slipType == "" {
		detected, scores, err := slip.Detect(text)
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		slipType = detected
		detectScores = scores
		resp.Detected = string(detected)
	} else {
		resp.Requested = string(slipType)
	}

	ex, err := slip.New(slipType)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := ex.Extract(text)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("extraction failed: %v", err))
	}
	result.Scores = detectScores
	resp.Result = result

	s.Trail.Append("slip.extract", fiber.Map{"slip_type": slipType, "employer": employerOf(result)})

	return c.JSON(resp)
}

func employerOf(r *models.ExtractionResult) string {
	if r.T4 != nil {
		return r.T4.Employer
	}
	if r.Invoice != nil {
		return r.Invoice.SoldBy
	}
	return ""
}

// JournalRequest is the wire shape of a journal entry to validate.
type JournalRequest struct {
	EntryDate   string               `json:"entry_date"`
	Description string               `json:"description"`
	Lines       []ledger.JournalLine `json:"lines"`
}

// JournalResponse reports the validity flag and every violation found.
type JournalResponse struct {
	Valid      bool         `json:"valid"`
	Violations []string     `json:"violations"`
	Debits     money.Amount `json:"total_debits"`
	Credits    money.Amount `json:"total_credits"`
}

func (s *Server) HandleValidateJournal(c *fiber.Ctx) error {
	var req JournalRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	entryDate := time.Now()
	if req.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid entry_date %q: use YYYY-MM-DD", req.EntryDate))
		}
		entryDate = parsed
	}

	entry := ledger.NewEntry(entryDate, req.Description, req.Lines)
	valid, violations := entry.Validate(ledger.DefaultChartOfAccounts())
	if violations == nil {
		violations = []string{}
	}

	s.Trail.Append("journal.validate", fiber.Map{"entry_id": entry.ID, "valid": valid})

	return c.JSON(JournalResponse{
		Valid:      valid,
		Violations: violations,
		Debits:     money.Amount{Decimal: entry.TotalDebits()},
		Credits:    money.Amount{Decimal: entry.TotalCredits()},
	})
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
