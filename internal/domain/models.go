// Package domain contains the core data model for the stock audit system.
// The types here are pure data - no infrastructure dependencies - so the
// scoring engine and the collaborator boundaries can share them freely.
package domain

import "strings"

// RawSecurityRecord is one row of input data for a single security, as
// produced by the extraction collaborator. Ticker is the only required
// field; every numeric field tolerates zero and is defaulted before use.
type RawSecurityRecord struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name,omitempty"`
	Sector           string  `json:"sector,omitempty"`
	Category         string  `json:"category,omitempty"` // exchange grading tier: "A", "B", "Z", ...
	Price            float64 `json:"price"`
	EPS              float64 `json:"eps"`
	NAV              float64 `json:"nav"`
	Debt             float64 `json:"debt"`
	SponsorHolding   float64 `json:"sponsor_holding"`        // percent, 0-100
	ForeignHolding   float64 `json:"foreign_holding"`        // percent, 0-100
	CashFlowPerShare float64 `json:"cashflow_per_share"`     // operating cash flow per share
	CashDividendPct  float64 `json:"cash_dividend_pct"`      // declared cash dividend, percent of face value
	DeclaredYield    float64 `json:"declared_yield"`         // precomputed dividend yield, percent
}

// NarrativeInsight is the qualitative output of the narrative collaborator
// for a single security. All fields are optional; ZeroInsight supplies the
// conservative defaults used when an entry is missing or malformed.
type NarrativeInsight struct {
	Ticker    string   `json:"ticker"`
	Moat      string   `json:"moat"`       // Monopoly / Oligopoly / Commodity / Unknown
	Monopoly  bool     `json:"monopoly"`
	Reasoning string   `json:"reasoning"`
	RiskGrade int      `json:"risk_grade"` // 1 = safest, 10 = most speculative
	Advice    string   `json:"advice"`     // localized advice string
	RedFlags  []string `json:"red_flags,omitempty"`
}

// ZeroInsight returns the defaults substituted when the narrative
// collaborator omits, truncates, or misaligns an entry. Risk grade is
// maximal and the moat is unknown so a missing entry never inflates a score.
func ZeroInsight(ticker string) NarrativeInsight {
	return NarrativeInsight{
		Ticker:    ticker,
		Moat:      "Unknown",
		Monopoly:  false,
		Reasoning: "data unavailable",
		RiskGrade: 10,
		Advice:    "",
	}
}

// IsMonopoly reports whether the insight classifies the business as a
// monopoly, via either the boolean flag or the moat label.
func (n NarrativeInsight) IsMonopoly() bool {
	return n.Monopoly || strings.EqualFold(n.Moat, "monopoly")
}

// IsOligopoly reports whether the moat label classifies the business as an
// oligopoly.
func (n NarrativeInsight) IsOligopoly() bool {
	return strings.EqualFold(n.Moat, "oligopoly")
}

// DerivedMetrics holds the ratios computed from a RawSecurityRecord.
// All values are finite by construction: denominators are defaulted before
// division and the P/E ratio of a loss-making security is the sentinel.
type DerivedMetrics struct {
	PERatio       float64 `json:"pe_ratio"`
	ROE           float64 `json:"roe"`            // percent
	DebtToEquity  float64 `json:"debt_to_equity"`
	PriceToBook   float64 `json:"price_to_book"`
	DividendYield float64 `json:"dividend_yield"` // percent
	FairValue     float64 `json:"fair_value"`
	GrahamFair    bool    `json:"graham_fair"` // fair value from the Graham formula, not the price fallback
}

// Verdict is the final discrete recommendation for a security.
type Verdict string

const (
	VerdictTerminate Verdict = "TERMINATE" // firewall failure, highest severity
	VerdictStrongBuy Verdict = "STRONG BUY"
	VerdictBuy       Verdict = "BUY"
	VerdictHold      Verdict = "HOLD"
	VerdictAvoid     Verdict = "AVOID"
	VerdictDeepValue Verdict = "DEEP VALUE" // trading far below book with manageable debt
	VerdictSell      Verdict = "SELL"       // overvalued relative to sector with weak returns
)

// ValuationLabel classifies price paid relative to the sector's ideal P/E.
type ValuationLabel string

const (
	ValuationCheap     ValuationLabel = "cheap"
	ValuationFair      ValuationLabel = "fair"
	ValuationExpensive ValuationLabel = "expensive"
)

// PriceLevels are the suggested trade prices derived from fair value and
// the current price.
type PriceLevels struct {
	Entry    float64 `json:"entry"`
	Exit     float64 `json:"exit"`
	StopLoss float64 `json:"stop_loss"`
}

// AnalysisResult is the engine's output for one security: the originating
// record, its derived metrics, the firewall outcome, the weighted score and
// verdict, and the merged narrative fields.
type AnalysisResult struct {
	Record       RawSecurityRecord `json:"record"`
	Metrics      DerivedMetrics    `json:"metrics"`
	FirewallPass bool              `json:"firewall_pass"`
	RedFlags     []string          `json:"red_flags"`
	Score        int               `json:"score"` // 0-100
	Verdict      Verdict           `json:"verdict"`
	Valuation    ValuationLabel    `json:"valuation"`
	Moat         string            `json:"moat"`
	Reasoning    string            `json:"reasoning"`
	RiskGrade    int               `json:"risk_grade"`
	Advice       string            `json:"advice"`
	Levels       PriceLevels       `json:"levels"`
}

// BatchSummary aggregates one audit run for display and persistence.
type BatchSummary struct {
	Count     int     `json:"count"`
	MeanScore float64 `json:"mean_score"`
	StdDev    float64 `json:"std_dev"`
	Median    float64 `json:"median"`
	MinScore  int     `json:"min_score"`
	MaxScore  int     `json:"max_score"`
	Failed    int     `json:"failed"` // firewall failures
}
