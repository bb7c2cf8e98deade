package audit

import "github.com/mkamal/stockaudit/internal/domain"

// ComputeScore composes the weighted 0-100 score for a security that has
// passed the firewall. Three independent components are summed:
//
//   - Safety (debt posture), up to 50: zero debt earns full credit,
//     leverage under the sector ceiling earns tier 1, under twice the
//     ceiling tier 2.
//   - Business quality (moat), up to 30: monopoly full, oligopoly partial.
//   - Valuation (cheapness), up to 20: P/E under the sector ideal full,
//     under 1.5x the ideal partial.
//
// The split makes capital safety dominate business quality, which in turn
// dominates price paid. The sum cannot exceed 100 by construction but is
// clamped anyway.
func ComputeScore(rec domain.RawSecurityRecord, m domain.DerivedMetrics, insight domain.NarrativeInsight, p Profile) int {
	bm := p.Benchmarks.Lookup(rec.Sector)

	score := safetyPoints(rec, m, bm, p)
	score += moatPoints(insight, p)
	score += valuationPoints(m, bm, p)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func safetyPoints(rec domain.RawSecurityRecord, m domain.DerivedMetrics, bm SectorBenchmark, p Profile) int {
	switch {
	case rec.Debt == 0:
		return p.SafetyWeight
	case m.DebtToEquity < bm.MaxDebtToEquity:
		return p.SafetyTier1
	case m.DebtToEquity < 2*bm.MaxDebtToEquity:
		return p.SafetyTier2
	}
	return 0
}

func moatPoints(insight domain.NarrativeInsight, p Profile) int {
	switch {
	case insight.IsMonopoly():
		return p.MoatWeight
	case insight.IsOligopoly():
		return p.MoatPartial
	}
	return 0
}

func valuationPoints(m domain.DerivedMetrics, bm SectorBenchmark, p Profile) int {
	switch {
	case m.PERatio < bm.IdealPE:
		return p.ValuationWeight
	case m.PERatio < 1.5*bm.IdealPE:
		return p.ValuationPartial
	}
	return 0
}
