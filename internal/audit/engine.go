package audit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkamal/stockaudit/internal/domain"
)

// ErrNoRecords is returned when the engine is invoked with an empty batch.
// It signals "no data found" to the caller; it is not a crash condition.
var ErrNoRecords = errors.New("no records to analyze")

// Engine is the deterministic scoring engine. It holds only the profile and
// a logger; all per-run state lives in the arguments, so a single Engine is
// safe to share across runs.
type Engine struct {
	profile Profile
	log     zerolog.Logger
}

// NewEngine creates a scoring engine bound to one profile.
func NewEngine(profile Profile, log zerolog.Logger) *Engine {
	return &Engine{
		profile: profile,
		log:     log.With().Str("component", "audit").Str("profile", profile.Name).Logger(),
	}
}

// Profile returns the profile the engine was built with.
func (e *Engine) Profile() Profile {
	return e.profile
}

// Analyze scores one batch. Records are processed in input order, each
// paired with its narrative insight by ticker (positional fallback when the
// collaborator omitted tickers), and the results are stable-sorted by score
// descending so ties preserve input order.
//
// The only error conditions are structural: an empty batch, or a record
// without a ticker. Missing optional fields and missing insights never
// abort the batch.
func (e *Engine) Analyze(records []domain.RawSecurityRecord, insights []domain.NarrativeInsight) ([]domain.AnalysisResult, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	for i, rec := range records {
		if strings.TrimSpace(rec.Ticker) == "" {
			return nil, fmt.Errorf("record %d has no ticker", i)
		}
	}

	byTicker := make(map[string]domain.NarrativeInsight, len(insights))
	for _, ins := range insights {
		if ins.Ticker != "" {
			byTicker[strings.ToUpper(ins.Ticker)] = ins
		}
	}

	results := make([]domain.AnalysisResult, 0, len(records))
	for i, rec := range records {
		insight := e.reconcileInsight(rec, i, insights, byTicker)
		results = append(results, e.analyzeOne(rec, insight))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// reconcileInsight pairs a record with its narrative entry. Ticker match
// wins; an index-aligned entry without a ticker is accepted positionally;
// anything else falls back to the conservative defaults.
func (e *Engine) reconcileInsight(rec domain.RawSecurityRecord, idx int, insights []domain.NarrativeInsight, byTicker map[string]domain.NarrativeInsight) domain.NarrativeInsight {
	if ins, ok := byTicker[strings.ToUpper(rec.Ticker)]; ok {
		return ins
	}
	if idx < len(insights) && insights[idx].Ticker == "" {
		ins := insights[idx]
		ins.Ticker = rec.Ticker
		return ins
	}
	e.log.Debug().Str("ticker", rec.Ticker).Msg("No narrative entry, using defaults")
	return domain.ZeroInsight(rec.Ticker)
}

// analyzeOne is the synchronous fold over a single record.
func (e *Engine) analyzeOne(rec domain.RawSecurityRecord, insight domain.NarrativeInsight) domain.AnalysisResult {
	p := e.profile
	metrics := DeriveMetrics(rec, p)
	firewall := EvaluateFirewall(rec, metrics, insight, p)

	// Firewall failure hard-sets the score to zero. The verdict already
	// communicates severity; a residual score would mislead during sorting.
	score := 0
	if firewall.Pass {
		score = ComputeScore(rec, metrics, insight, p)
	}

	riskGrade := insight.RiskGrade
	if riskGrade < 1 || riskGrade > 10 {
		riskGrade = 10
	}

	flags := firewall.Flags
	if flags == nil {
		flags = []string{}
	}

	return domain.AnalysisResult{
		Record:       rec,
		Metrics:      metrics,
		FirewallPass: firewall.Pass,
		RedFlags:     flags,
		Score:        score,
		Verdict:      ClassifyVerdict(rec, metrics, firewall.Pass, score, p),
		Valuation:    ClassifyValuation(rec.Sector, metrics, p),
		Moat:         defaultString(insight.Moat, "Unknown"),
		Reasoning:    defaultString(insight.Reasoning, "data unavailable"),
		RiskGrade:    riskGrade,
		Advice:       insight.Advice,
		Levels:       SuggestLevels(metrics),
	}
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
