package audit

// SectorBenchmark holds the per-industry reference thresholds used to make
// valuation and safety judgments sector-relative rather than absolute.
type SectorBenchmark struct {
	IdealPE         float64 `json:"ideal_pe"`
	MinROE          float64 `json:"min_roe"` // percent
	MaxDebtToEquity float64 `json:"max_debt_to_equity"`
}

// Benchmarks is the read-only sector benchmark table. Lookups never fail:
// an unrecognized or absent sector resolves to the DEFAULT entry.
type Benchmarks map[string]SectorBenchmark

// DefaultKey is the fallback entry every Benchmarks table must carry.
const DefaultKey = "DEFAULT"

// DefaultBenchmarks returns the built-in benchmark table. Banks and
// insurers carry structurally higher leverage, so their debt ceilings are
// wider; pharma and IT trade at richer multiples, so their ideal P/E is
// higher.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		"Bank":              {IdealPE: 8, MinROE: 12, MaxDebtToEquity: 2.5},
		"Insurance":         {IdealPE: 10, MinROE: 10, MaxDebtToEquity: 2.0},
		"Pharmaceuticals":   {IdealPE: 15, MinROE: 15, MaxDebtToEquity: 0.8},
		"IT":                {IdealPE: 15, MinROE: 15, MaxDebtToEquity: 0.6},
		"Telecommunication": {IdealPE: 12, MinROE: 18, MaxDebtToEquity: 1.0},
		"Fuel & Power":      {IdealPE: 10, MinROE: 12, MaxDebtToEquity: 1.2},
		"Cement":            {IdealPE: 12, MinROE: 10, MaxDebtToEquity: 1.0},
		"Engineering":       {IdealPE: 12, MinROE: 12, MaxDebtToEquity: 1.0},
		"Textile":           {IdealPE: 10, MinROE: 8, MaxDebtToEquity: 1.0},
		"Food":              {IdealPE: 12, MinROE: 12, MaxDebtToEquity: 0.8},
		DefaultKey:          {IdealPE: 10, MinROE: 10, MaxDebtToEquity: 1.0},
	}
}

// Lookup resolves the benchmark for a sector label, falling back to the
// DEFAULT entry for unknown or empty sectors.
func (b Benchmarks) Lookup(sector string) SectorBenchmark {
	if bm, ok := b[sector]; ok {
		return bm
	}
	return b[DefaultKey]
}
