package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkamal/stockaudit/internal/domain"
	"github.com/mkamal/stockaudit/internal/llm"
)

func TestParseInsights_WellFormed(t *testing.T) {
	response := `[
		{"ticker": "gp", "moat": "Monopoly", "monopoly": true, "reasoning": "Dominant subscriber base.", "risk_grade": 3, "advice": "কিনুন", "red_flags": []},
		{"ticker": "BEXIMCO", "moat": "Commodity", "monopoly": false, "risk_grade": 9, "red_flags": ["conglomerate opacity"]}
	]`

	insights := ParseInsights(response)

	require.Len(t, insights, 2)
	assert.Equal(t, "GP", insights[0].Ticker)
	assert.True(t, insights[0].Monopoly)
	assert.Equal(t, []string{"conglomerate opacity"}, insights[1].RedFlags)
}

func TestParseInsights_Fenced(t *testing.T) {
	response := "```json\n[{\"ticker\": \"ACI\", \"moat\": \"Oligopoly\", \"risk_grade\": 5}]\n```"

	insights := ParseInsights(response)

	require.Len(t, insights, 1)
	assert.Equal(t, "ACI", insights[0].Ticker)
}

func TestParseInsights_TruncatedArrayRecovered(t *testing.T) {
	// Response cut off mid-third-object: the two complete entries survive.
	response := `[
		{"ticker": "AAA", "moat": "Monopoly", "risk_grade": 2},
		{"ticker": "BBB", "moat": "Commodity", "risk_grade": 8},
		{"ticker": "CCC", "moat": "Oligo`

	insights := ParseInsights(response)

	require.Len(t, insights, 2)
	assert.Equal(t, "AAA", insights[0].Ticker)
	assert.Equal(t, "BBB", insights[1].Ticker)
}

func TestParseInsights_GarbageIsEmpty(t *testing.T) {
	assert.Empty(t, ParseInsights("As an AI model I cannot review these securities."))
	assert.Empty(t, ParseInsights(""))
}

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (s *stubProvider) GenerateContent(_ context.Context, _ *llm.ContentRequest) (*llm.ContentResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ContentResponse{Text: s.response}, nil
}

func (s *stubProvider) Close() error { return nil }

type memCache map[string][]byte

func (c memCache) Get(key string) ([]byte, bool) {
	v, ok := c[key]
	return v, ok
}

func (c memCache) Set(key string, value []byte) error {
	c[key] = value
	return nil
}

func testRecords() []domain.RawSecurityRecord {
	return []domain.RawSecurityRecord{
		{Ticker: "GP", Sector: "Telecommunication", Price: 286.5, EPS: 24.1, NAV: 45.2, SponsorHolding: 90},
	}
}

func TestNarrator_CallFailureSurfaces(t *testing.T) {
	n := New(&stubProvider{err: errors.New("rate limited")}, nil, zerolog.Nop())

	_, err := n.Insights(context.Background(), testRecords())

	assert.Error(t, err)
}

func TestNarrator_CacheShortCircuitsSecondCall(t *testing.T) {
	provider := &stubProvider{response: `[{"ticker": "GP", "moat": "Monopoly", "risk_grade": 3}]`}
	n := New(provider, memCache{}, zerolog.Nop())

	first, err := n.Insights(context.Background(), testRecords())
	require.NoError(t, err)
	second, err := n.Insights(context.Background(), testRecords())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls, "second batch must be served from cache")
}

func TestNarrator_EmptyBatchNoCall(t *testing.T) {
	provider := &stubProvider{}
	n := New(provider, nil, zerolog.Nop())

	insights, err := n.Insights(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, insights)
	assert.Zero(t, provider.calls)
}
