package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkamal/stockaudit/internal/domain"
)

func TestClassifyVerdict_FirewallOverridesEverything(t *testing.T) {
	rec := domain.RawSecurityRecord{Ticker: "X", Sector: "Bank"}
	m := domain.DerivedMetrics{PERatio: 5, PriceToBook: 0.4}

	verdict := ClassifyVerdict(rec, m, false, 100, CanonicalProfile())

	assert.Equal(t, domain.VerdictTerminate, verdict)
}

func TestClassifyVerdict_ScoreCutoffs(t *testing.T) {
	testCases := []struct {
		score    int
		expected domain.Verdict
	}{
		{100, domain.VerdictStrongBuy},
		{80, domain.VerdictStrongBuy},
		{79, domain.VerdictBuy},
		{55, domain.VerdictBuy},
		{54, domain.VerdictHold},
		{35, domain.VerdictHold},
		{34, domain.VerdictAvoid},
		{0, domain.VerdictAvoid},
	}

	rec := domain.RawSecurityRecord{Ticker: "X"}
	m := domain.DerivedMetrics{PERatio: 12, PriceToBook: 1.2, ROE: 15}

	for _, tc := range testCases {
		verdict := ClassifyVerdict(rec, m, true, tc.score, CanonicalProfile())
		assert.Equal(t, tc.expected, verdict, "score %d", tc.score)
	}
}

func TestClassifyVerdict_DeepValueOverride(t *testing.T) {
	// Trading at half book with leverage inside the sector ceiling
	// short-circuits the base table even on a weak score.
	rec := domain.RawSecurityRecord{Ticker: "X"}
	m := domain.DerivedMetrics{PERatio: 12, PriceToBook: 0.5, DebtToEquity: 0.8, ROE: 15}

	verdict := ClassifyVerdict(rec, m, true, 20, CanonicalProfile())

	assert.Equal(t, domain.VerdictDeepValue, verdict)
}

func TestClassifyVerdict_DeepValueRequiresManageableDebt(t *testing.T) {
	rec := domain.RawSecurityRecord{Ticker: "X"}
	m := domain.DerivedMetrics{PERatio: 12, PriceToBook: 0.5, DebtToEquity: 3.0, ROE: 15}

	verdict := ClassifyVerdict(rec, m, true, 20, CanonicalProfile())

	assert.NotEqual(t, domain.VerdictDeepValue, verdict)
}

func TestClassifyVerdict_OvervaluedOverride(t *testing.T) {
	// P/E over twice the DEFAULT ideal with ROE under the sector floor.
	rec := domain.RawSecurityRecord{Ticker: "X"}
	m := domain.DerivedMetrics{PERatio: 25, PriceToBook: 2.0, ROE: 5}

	verdict := ClassifyVerdict(rec, m, true, 60, CanonicalProfile())

	assert.Equal(t, domain.VerdictSell, verdict)
}

func TestClassifyVerdict_HighPEWithStrongROEIsNotSell(t *testing.T) {
	rec := domain.RawSecurityRecord{Ticker: "X"}
	m := domain.DerivedMetrics{PERatio: 25, PriceToBook: 2.0, ROE: 22}

	verdict := ClassifyVerdict(rec, m, true, 60, CanonicalProfile())

	assert.Equal(t, domain.VerdictBuy, verdict)
}

func TestClassifyValuation(t *testing.T) {
	testCases := []struct {
		name     string
		sector   string
		pe       float64
		expected domain.ValuationLabel
	}{
		{"under default ideal", "", 8, domain.ValuationCheap},
		{"between ideal and 2x", "", 15, domain.ValuationFair},
		{"over twice ideal", "", 25, domain.ValuationExpensive},
		{"sentinel is always expensive", "", 999, domain.ValuationExpensive},
		{"sector-aware: 9 is fair for a bank", "Bank", 9, domain.ValuationFair},
		{"sector-aware: 14 is cheap for pharma", "Pharmaceuticals", 14, domain.ValuationCheap},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := domain.DerivedMetrics{PERatio: tc.pe}
			assert.Equal(t, tc.expected, ClassifyValuation(tc.sector, m, CanonicalProfile()))
		})
	}
}
