package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkamal/stockaudit/internal/domain"
)

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\n?(.*?)\n?\\s*```\\s*$")

// CleanFences strips markdown code fences the model sometimes wraps its
// JSON in, despite instructions.
func CleanFences(s string) string {
	s = strings.TrimSpace(s)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// looseNumber accepts a JSON number, a numeric string (commas tolerated),
// or null, decoding all of them to a float64. Extraction models frequently
// quote numbers copied from tables.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = looseNumber(v)
	return nil
}

// rawRow mirrors the extraction contract with loose numeric decoding.
type rawRow struct {
	Ticker           string      `json:"ticker"`
	Name             string      `json:"name"`
	Sector           string      `json:"sector"`
	Category         string      `json:"category"`
	Price            looseNumber `json:"price"`
	EPS              looseNumber `json:"eps"`
	NAV              looseNumber `json:"nav"`
	Debt             looseNumber `json:"debt"`
	SponsorHolding   looseNumber `json:"sponsor_holding"`
	ForeignHolding   looseNumber `json:"foreign_holding"`
	CashFlowPerShare looseNumber `json:"cashflow_per_share"`
	CashDividendPct  looseNumber `json:"cash_dividend_pct"`
	DeclaredYield    looseNumber `json:"declared_yield"`
}

// ParseRecords decodes the extraction response into records, skipping
// entries without a ticker. Negative prices and debts are floored at zero;
// EPS and NAV keep their sign for the engine to judge.
func ParseRecords(response string) ([]domain.RawSecurityRecord, error) {
	cleaned := CleanFences(response)

	var rows []rawRow
	if err := json.Unmarshal([]byte(cleaned), &rows); err != nil {
		return nil, fmt.Errorf("decoding extraction payload: %w", err)
	}

	records := make([]domain.RawSecurityRecord, 0, len(rows))
	for _, row := range rows {
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if ticker == "" {
			continue
		}
		records = append(records, domain.RawSecurityRecord{
			Ticker:           ticker,
			Name:             strings.TrimSpace(row.Name),
			Sector:           strings.TrimSpace(row.Sector),
			Category:         strings.ToUpper(strings.TrimSpace(row.Category)),
			Price:            nonNegative(float64(row.Price)),
			EPS:              float64(row.EPS),
			NAV:              float64(row.NAV),
			Debt:             nonNegative(float64(row.Debt)),
			SponsorHolding:   clampPercent(float64(row.SponsorHolding)),
			ForeignHolding:   clampPercent(float64(row.ForeignHolding)),
			CashFlowPerShare: float64(row.CashFlowPerShare),
			CashDividendPct:  nonNegative(float64(row.CashDividendPct)),
			DeclaredYield:    nonNegative(float64(row.DeclaredYield)),
		})
	}
	return records, nil
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
