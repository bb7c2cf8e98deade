package audit

import "github.com/mkamal/stockaudit/internal/domain"

// ClassifyVerdict maps the firewall outcome and score to a verdict. The
// firewall overrides everything; the two extension rules (deep value,
// overvalued) are evaluated next and short-circuit the base decision table.
func ClassifyVerdict(rec domain.RawSecurityRecord, m domain.DerivedMetrics, firewallPass bool, score int, p Profile) domain.Verdict {
	if !firewallPass {
		return domain.VerdictTerminate
	}

	bm := p.Benchmarks.Lookup(rec.Sector)

	// Deep discount to book with manageable leverage trumps the score.
	if m.PriceToBook > 0 && m.PriceToBook < p.DeepValuePriceToBook && m.DebtToEquity <= bm.MaxDebtToEquity {
		return domain.VerdictDeepValue
	}

	// Rich multiple with returns under the sector floor.
	if m.PERatio > p.OvervaluedPEFactor*bm.IdealPE && m.ROE < bm.MinROE {
		return domain.VerdictSell
	}

	switch {
	case score >= p.StrongBuyScore:
		return domain.VerdictStrongBuy
	case score >= p.BuyScore:
		return domain.VerdictBuy
	case score >= p.HoldScore:
		return domain.VerdictHold
	}
	return domain.VerdictAvoid
}

// ClassifyValuation labels price paid relative to the sector's ideal P/E:
// under the ideal is cheap, over twice the ideal is expensive, in between
// is fair.
func ClassifyValuation(sector string, m domain.DerivedMetrics, p Profile) domain.ValuationLabel {
	bm := p.Benchmarks.Lookup(sector)
	switch {
	case m.PERatio < bm.IdealPE:
		return domain.ValuationCheap
	case m.PERatio > 2*bm.IdealPE:
		return domain.ValuationExpensive
	}
	return domain.ValuationFair
}
