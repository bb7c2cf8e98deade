package audit

import (
	"fmt"
	"strings"

	"github.com/mkamal/stockaudit/internal/domain"
)

// FirewallOutcome is the result of the capital-preservation gate for one
// security. Flags are ordered: disqualifying rules in fixed evaluation
// order, then the advisory cash-flow flag, then narrative-supplied flags.
type FirewallOutcome struct {
	Pass  bool
	Flags []string
}

// EvaluateFirewall decides whether a security is unconditionally
// disqualified regardless of its weighted score. Rule order is fixed:
// exchange category, sponsor holding, profitability, leverage. Any single
// trigger fails the gate.
func EvaluateFirewall(rec domain.RawSecurityRecord, m domain.DerivedMetrics, insight domain.NarrativeInsight, p Profile) FirewallOutcome {
	out := FirewallOutcome{Pass: true}

	if strings.EqualFold(strings.TrimSpace(rec.Category), p.JunkCategory) {
		out.Pass = false
		out.Flags = append(out.Flags, fmt.Sprintf("exchange category %s: junk tier", strings.ToUpper(rec.Category)))
	}

	if rec.SponsorHolding < p.MinSponsorHolding {
		out.Pass = false
		out.Flags = append(out.Flags, fmt.Sprintf("sponsor holding %.1f%% below minimum %.0f%%", rec.SponsorHolding, p.MinSponsorHolding))
	}

	if rec.EPS <= 0 {
		out.Pass = false
		out.Flags = append(out.Flags, "loss-making: EPS is zero or negative")
	}

	if m.DebtToEquity > p.MaxDebtToEquity {
		out.Pass = false
		out.Flags = append(out.Flags, fmt.Sprintf("debt/equity %.2f exceeds ceiling %.2f", m.DebtToEquity, p.MaxDebtToEquity))
	}

	// Advisory only: positive reported earnings with negative operating
	// cash flow is an earnings-quality warning, not a disqualifier.
	if rec.EPS > 0 && rec.CashFlowPerShare < 0 {
		out.Flags = append(out.Flags, "earnings positive but operating cash flow negative")
	}

	out.Flags = append(out.Flags, insight.RedFlags...)

	return out
}
