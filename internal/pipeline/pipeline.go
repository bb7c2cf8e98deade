// Package pipeline orchestrates a full audit pass: extraction, narrative
// enrichment, deterministic scoring, and persistence.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mkamal/stockaudit/internal/audit"
	"github.com/mkamal/stockaudit/internal/domain"
	"github.com/mkamal/stockaudit/internal/extraction"
	"github.com/mkamal/stockaudit/internal/history"
)

// Input is the raw material for one audit run. Exactly one of Text or
// Document should be set.
type Input struct {
	Text     string
	Document []byte
	MIMEType string
}

// Source reports where the records come from.
func (in Input) Source() string {
	if len(in.Document) > 0 {
		return "document"
	}
	return "text"
}

// Outcome is the published result of a completed run.
type Outcome struct {
	RunID    string                  `json:"run_id"`
	Source   string                  `json:"source"`
	Profile  string                  `json:"profile"`
	Results  []domain.AnalysisResult `json:"results"`
	Summary  domain.BatchSummary     `json:"summary"`
	Warnings []string                `json:"warnings,omitempty"`
}

// Pipeline wires the extraction, narrative, and scoring stages together
// and records every completed run in history.
type Pipeline struct {
	extractor *extraction.Extractor
	narrator  Narrator
	engine    *audit.Engine
	repo      *history.Repository
	profile   string
	log       zerolog.Logger

	mu        sync.Mutex
	nextSeq   uint64
	latestSeq uint64
	latest    *Outcome
}

// Narrator produces qualitative insights for a batch. Narrative failures
// are tolerated, so the interface is small enough to stub in tests.
type Narrator interface {
	Insights(ctx context.Context, records []domain.RawSecurityRecord) ([]domain.NarrativeInsight, error)
}

// New creates a pipeline. The narrator may be nil, in which case every
// record is scored with default insights.
func New(extractor *extraction.Extractor, narrator Narrator, engine *audit.Engine, repo *history.Repository, profile string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		narrator:  narrator,
		engine:    engine,
		repo:      repo,
		profile:   profile,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one audit pass. Extraction and scoring failures abort the
// run; narrative failures downgrade to default insights with a warning.
//
// Runs are sequenced so that a slow run finishing after a newer one
// cannot overwrite the newer run as latest.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Outcome, error) {
	seq := p.claimSeq()

	records, err := p.extract(ctx, in)
	if err != nil {
		return nil, err
	}

	var warnings []string
	insights, err := p.narrate(ctx, records)
	if err != nil {
		p.log.Warn().Err(err).Msg("Narrative stage failed, scoring with defaults")
		warnings = append(warnings, fmt.Sprintf("narrative unavailable: %v", err))
		insights = nil
	}

	results, err := p.engine.Analyze(records, insights)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	summary := audit.Summarize(results)

	runID, err := p.repo.SaveRun(in.Source(), p.profile, results, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}

	outcome := &Outcome{
		RunID:    runID,
		Source:   in.Source(),
		Profile:  p.profile,
		Results:  results,
		Summary:  summary,
		Warnings: warnings,
	}

	p.publish(seq, outcome)

	p.log.Info().
		Str("run_id", runID).
		Int("records", len(results)).
		Int("failed", summary.Failed).
		Msg("Audit run completed")

	return outcome, nil
}

// Latest returns the most recently published run, or nil before the
// first successful run.
func (p *Pipeline) Latest() *Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *Pipeline) extract(ctx context.Context, in Input) ([]domain.RawSecurityRecord, error) {
	if len(in.Document) > 0 {
		return p.extractor.FromDocument(ctx, in.Document, in.MIMEType)
	}
	return p.extractor.FromText(ctx, in.Text)
}

func (p *Pipeline) narrate(ctx context.Context, records []domain.RawSecurityRecord) ([]domain.NarrativeInsight, error) {
	if p.narrator == nil {
		return nil, nil
	}
	return p.narrator.Insights(ctx, records)
}

func (p *Pipeline) claimSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSeq++
	return p.nextSeq
}

// publish installs the outcome as latest unless a newer run already did.
func (p *Pipeline) publish(seq uint64, outcome *Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq < p.latestSeq {
		p.log.Debug().
			Uint64("seq", seq).
			Uint64("latest", p.latestSeq).
			Msg("Stale run finished, keeping newer result")
		return
	}
	p.latestSeq = seq
	p.latest = outcome
}
