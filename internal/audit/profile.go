// Package audit implements the deterministic scoring and classification
// engine. Given raw per-security records and the narrative collaborator's
// insights, it computes derived ratios, applies the capital-preservation
// firewall, composes a weighted score, classifies a verdict, and assembles
// the sorted result batch. Every function here is pure: the only inputs are
// the records, the insights, and an explicit Profile.
package audit

import "fmt"

// Profile is the versioned configuration the engine runs with. The historic
// variants of this system drifted on nearly every threshold; rather than
// carrying parallel implementations, the differences live here as presets.
type Profile struct {
	Name    string
	Version int

	// Firewall thresholds. Any breach disqualifies the security outright.
	MinSponsorHolding float64 // percent, below this the firewall trips
	MaxDebtToEquity   float64 // firewall ceiling, not sector-relative
	JunkCategory      string  // exchange tier that trips the firewall

	// Weighted scoring. The three weights encode the policy priority order:
	// capital safety over business quality over price paid.
	SafetyWeight     int // full credit when debt is exactly zero
	SafetyTier1      int // debt/equity under the sector ceiling
	SafetyTier2      int // debt/equity under twice the sector ceiling
	MoatWeight       int // monopoly
	MoatPartial      int // oligopoly
	ValuationWeight  int // P/E under the sector ideal
	ValuationPartial int // P/E under 1.5x the sector ideal

	// Verdict cutoffs on the composed score.
	StrongBuyScore int
	BuyScore       int
	HoldScore      int

	// Extension rules layered before the base verdict table.
	DeepValuePriceToBook float64 // price below this fraction of NAV
	OvervaluedPEFactor   float64 // P/E above this multiple of the sector ideal

	// Derived-metric constants.
	SentinelPE        float64 // P/E assigned to loss-making securities
	FaceValue         float64 // assumed face value for cash-dividend yield
	FallbackFairValue float64 // fair value = price x this when Graham does not apply
	MaxDebtEquityCap  float64 // clamp for the debt/equity approximation

	Benchmarks Benchmarks
}

// CanonicalProfile is the default profile. Thresholds follow the most
// conservative of the historic variants: sponsor holding 15%, debt/equity
// ceiling 1.0, 50/30/20 point split, verdict cutoffs 80/55/35.
func CanonicalProfile() Profile {
	return Profile{
		Name:    "canonical",
		Version: 1,

		MinSponsorHolding: 15.0,
		MaxDebtToEquity:   1.0,
		JunkCategory:      "Z",

		SafetyWeight:     50,
		SafetyTier1:      30,
		SafetyTier2:      15,
		MoatWeight:       30,
		MoatPartial:      15,
		ValuationWeight:  20,
		ValuationPartial: 10,

		StrongBuyScore: 80,
		BuyScore:       55,
		HoldScore:      35,

		DeepValuePriceToBook: 0.60,
		OvervaluedPEFactor:   2.0,

		SentinelPE:        999,
		FaceValue:         10,
		FallbackFairValue: 0.85,
		MaxDebtEquityCap:  100,

		Benchmarks: DefaultBenchmarks(),
	}
}

// StrictProfile tightens the ownership and leverage gates. It matches the
// variant that required 25% sponsor holding and a 0.5 debt/equity ceiling.
func StrictProfile() Profile {
	p := CanonicalProfile()
	p.Name = "strict"
	p.MinSponsorHolding = 25.0
	p.MaxDebtToEquity = 0.5
	p.StrongBuyScore = 85
	return p
}

// LenientProfile relaxes the gates toward the most permissive variant,
// useful for screening rather than final allocation decisions.
func LenientProfile() Profile {
	p := CanonicalProfile()
	p.Name = "lenient"
	p.MinSponsorHolding = 10.0
	p.MaxDebtToEquity = 1.5
	p.BuyScore = 50
	p.HoldScore = 30
	return p
}

// ProfileByName resolves a profile preset by name. Unknown names are an
// error rather than a silent fallback so a misconfigured deployment fails
// loudly at startup.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "canonical":
		return CanonicalProfile(), nil
	case "strict":
		return StrictProfile(), nil
	case "lenient":
		return LenientProfile(), nil
	}
	return Profile{}, fmt.Errorf("unknown scoring profile %q", name)
}

// Profiles returns all built-in presets, canonical first.
func Profiles() []Profile {
	return []Profile{CanonicalProfile(), StrictProfile(), LenientProfile()}
}
