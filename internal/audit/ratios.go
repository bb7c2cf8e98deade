package audit

import (
	"math"

	"github.com/mkamal/stockaudit/internal/domain"
)

// DeriveMetrics computes the per-security ratios from one raw record.
// Missing numeric fields arrive as zero; zero denominators are substituted
// with 1 before any division so no NaN or Inf can reach the scoring stage.
func DeriveMetrics(rec domain.RawSecurityRecord, p Profile) domain.DerivedMetrics {
	nav := rec.NAV
	if nav <= 0 {
		nav = 1
	}

	m := domain.DerivedMetrics{
		ROE:         rec.EPS / nav * 100,
		PriceToBook: rec.Price / nav,
	}

	// A loss-making security gets the sentinel P/E so every downstream
	// threshold comparison classifies it as expensive.
	if rec.EPS > 0 {
		m.PERatio = rec.Price / rec.EPS
	} else {
		m.PERatio = p.SentinelPE
	}

	m.DebtToEquity = clamp(rec.Debt/nav, 0, p.MaxDebtEquityCap)
	m.DividendYield = dividendYield(rec, p)

	// Graham-style intrinsic value needs strictly positive earnings and
	// book value; otherwise approximate from the traded price.
	if rec.EPS > 0 && rec.NAV > 0 {
		m.FairValue = math.Sqrt(22.5 * rec.EPS * rec.NAV)
		m.GrahamFair = true
	} else {
		m.FairValue = rec.Price * p.FallbackFairValue
	}

	return m
}

// dividendYield prefers a declared yield when present. Otherwise it derives
// the yield from the declared cash dividend percentage against the assumed
// face value, with the price floored at 1 so a missing price cannot blow
// the ratio up.
func dividendYield(rec domain.RawSecurityRecord, p Profile) float64 {
	if rec.DeclaredYield > 0 {
		return rec.DeclaredYield
	}
	if rec.CashDividendPct <= 0 {
		return 0
	}
	price := rec.Price
	if price < 1 {
		price = 1
	}
	return p.FaceValue * rec.CashDividendPct / price
}

// SuggestLevels derives entry/exit/stop-loss prices from fair value. Entry
// demands a 10% margin of safety under fair value, exit targets 10% above,
// and the stop sits 15% under the entry.
func SuggestLevels(m domain.DerivedMetrics) domain.PriceLevels {
	entry := m.FairValue * 0.90
	return domain.PriceLevels{
		Entry:    round2(entry),
		Exit:     round2(m.FairValue * 1.10),
		StopLoss: round2(entry * 0.85),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
