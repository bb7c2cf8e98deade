// Package narrative is the boundary to the generative commentary
// collaborator. One batched request per audit run supplies moat
// classifications, reasoning, risk grades, and localized advice. The
// response is untrusted JSON and is parsed defensively; a total failure
// degrades to an empty insight list, never a run abort.
package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mkamal/stockaudit/internal/domain"
	"github.com/mkamal/stockaudit/internal/llm"
)

const narrativeSystem = `You are a conservative equity analyst reviewing securities listed on the Dhaka Stock Exchange.
For each security you receive, respond with a JSON array only - no markdown fences - aligned by ticker, each object containing:
ticker (string), moat ("Monopoly"/"Oligopoly"/"Commodity"/"Unknown"), monopoly (boolean), reasoning (2-3 sentences, English),
risk_grade (integer 1-10, 1 safest), advice (one sentence in Bangla), red_flags (array of short strings, may be empty).
Judge business durability, governance, and earnings quality. Be skeptical of loss makers and thin sponsor holdings.`

// Cache stores narrative responses keyed by a hash of the batch metrics so
// repeat audits of unchanged data skip the collaborator call. Implemented
// by the history package's cache table; nil disables caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Narrator calls the narrative collaborator for one batch of securities.
type Narrator struct {
	provider llm.Provider
	cache    Cache
	log      zerolog.Logger
}

// New creates a narrator. cache may be nil.
func New(provider llm.Provider, cache Cache, log zerolog.Logger) *Narrator {
	return &Narrator{
		provider: provider,
		cache:    cache,
		log:      log.With().Str("component", "narrative").Logger(),
	}
}

// Insights fetches narrative output for the whole batch. Errors are
// returned so the caller can log them, but callers are expected to proceed
// with an empty slice: narrative data is enrichment, not a prerequisite.
func (n *Narrator) Insights(ctx context.Context, records []domain.RawSecurityRecord) ([]domain.NarrativeInsight, error) {
	if len(records) == 0 {
		return nil, nil
	}

	key := batchKey(records)
	if n.cache != nil {
		if blob, ok := n.cache.Get(key); ok {
			var cached []domain.NarrativeInsight
			if err := msgpack.Unmarshal(blob, &cached); err == nil {
				n.log.Debug().Int("insights", len(cached)).Msg("Narrative served from cache")
				return cached, nil
			}
		}
	}

	resp, err := n.provider.GenerateContent(ctx, &llm.ContentRequest{
		System:      narrativeSystem,
		Parts:       []llm.Part{{Text: batchPrompt(records)}},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("narrative call failed: %w", err)
	}

	insights := ParseInsights(resp.Text)
	n.log.Info().Int("requested", len(records)).Int("received", len(insights)).Msg("Narrative completed")

	if n.cache != nil && len(insights) > 0 {
		if blob, err := msgpack.Marshal(insights); err == nil {
			if err := n.cache.Set(key, blob); err != nil {
				n.log.Warn().Err(err).Msg("Failed to cache narrative response")
			}
		}
	}

	return insights, nil
}

// batchPrompt renders the core metrics of every security, one line each,
// in input order so an index-aligned response is still usable.
func batchPrompt(records []domain.RawSecurityRecord) string {
	var b strings.Builder
	b.WriteString("Securities to review:\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s (%s, category %s): price %.2f, EPS %.2f, NAV %.2f, debt %.2f, sponsor holding %.1f%%, cash dividend %.1f%%, CFPS %.2f\n",
			rec.Ticker, orUnknown(rec.Sector), orUnknown(rec.Category),
			rec.Price, rec.EPS, rec.NAV, rec.Debt, rec.SponsorHolding, rec.CashDividendPct, rec.CashFlowPerShare)
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// batchKey hashes the metrics the prompt is built from, so any change in
// the batch produces a different cache key.
func batchKey(records []domain.RawSecurityRecord) string {
	h := sha256.Sum256([]byte(batchPrompt(records)))
	return hex.EncodeToString(h[:])
}
