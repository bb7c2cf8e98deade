// Package extraction is the boundary to the structured-extraction
// collaborator: it turns raw pasted text or an uploaded document/image into
// ordered RawSecurityRecords. The model response is untrusted; everything
// is coerced and defaulted before it reaches the scoring engine.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkamal/stockaudit/internal/domain"
	"github.com/mkamal/stockaudit/internal/llm"
)

// ErrNoRecords signals that nothing parseable was found in the input. It is
// a user-facing condition, not a crash.
var ErrNoRecords = errors.New("no securities found in input")

const extractionSystem = `You extract per-security financial data from raw text, tables, documents, or images.
Respond with a JSON array only - no markdown fences, no commentary. One object per security with these fields:
ticker (string, required), name, sector, category, price, eps, nav, debt, sponsor_holding, foreign_holding, cashflow_per_share, cash_dividend_pct, declared_yield.
All numeric fields are plain numbers. Use 0 for anything not present in the input. Category is the exchange grading tier (A/B/N/Z) when stated.`

// Extractor calls the extraction collaborator and normalizes its output.
type Extractor struct {
	provider llm.Provider
	log      zerolog.Logger
}

// New creates an extractor bound to one provider.
func New(provider llm.Provider, log zerolog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		log:      log.With().Str("component", "extraction").Logger(),
	}
}

// FromText extracts records from pasted plain text.
func (e *Extractor) FromText(ctx context.Context, text string) ([]domain.RawSecurityRecord, error) {
	if text == "" {
		return nil, ErrNoRecords
	}
	return e.extract(ctx, []llm.Part{{Text: text}})
}

// FromDocument extracts records from an uploaded document or image.
func (e *Extractor) FromDocument(ctx context.Context, data []byte, mimeType string) ([]domain.RawSecurityRecord, error) {
	if len(data) == 0 {
		return nil, ErrNoRecords
	}
	parts := []llm.Part{
		{Text: "Extract the per-security financial data from this document."},
		{Data: data, MIMEType: mimeType},
	}
	return e.extract(ctx, parts)
}

func (e *Extractor) extract(ctx context.Context, parts []llm.Part) ([]domain.RawSecurityRecord, error) {
	resp, err := e.provider.GenerateContent(ctx, &llm.ContentRequest{
		System:      extractionSystem,
		Parts:       parts,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	records, err := ParseRecords(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("extraction response unparseable: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	e.log.Info().Int("records", len(records)).Msg("Extraction completed")
	return records, nil
}
