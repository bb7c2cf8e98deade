package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroInsight(t *testing.T) {
	insight := ZeroInsight("GP")

	assert.Equal(t, "GP", insight.Ticker)
	assert.Equal(t, "Unknown", insight.Moat)
	assert.Equal(t, "data unavailable", insight.Reasoning)
	assert.Equal(t, 10, insight.RiskGrade, "missing narrative means worst risk, not best")
	assert.False(t, insight.IsMonopoly())
	assert.False(t, insight.IsOligopoly())
}

func TestInsight_MoatClassification(t *testing.T) {
	testCases := []struct {
		name      string
		insight   NarrativeInsight
		monopoly  bool
		oligopoly bool
	}{
		{"flag set", NarrativeInsight{Monopoly: true}, true, false},
		{"moat label monopoly", NarrativeInsight{Moat: "Monopoly"}, true, false},
		{"moat label uppercase", NarrativeInsight{Moat: "MONOPOLY"}, true, false},
		{"oligopoly label", NarrativeInsight{Moat: "oligopoly"}, false, true},
		{"no moat", NarrativeInsight{Moat: "None"}, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.monopoly, tc.insight.IsMonopoly())
			assert.Equal(t, tc.oligopoly, tc.insight.IsOligopoly())
		})
	}
}
