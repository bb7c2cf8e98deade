package narrative

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mkamal/stockaudit/internal/domain"
)

var fencePattern = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\n?(.*?)\n?\\s*```\\s*$")

// ParseInsights decodes the narrative response. The payload is treated as
// hostile: markdown fences are stripped, a truncated array is recovered by
// trimming to the last complete object, and a payload that still will not
// parse yields an empty list. The engine substitutes defaults per record,
// so partial output is strictly better than none.
func ParseInsights(response string) []domain.NarrativeInsight {
	cleaned := cleanFences(response)

	if insights, ok := decode(cleaned); ok {
		return insights
	}

	// Best-effort recovery for responses cut off mid-array: close the
	// array after each trailing complete object until one parses.
	for idx := strings.LastIndex(cleaned, "}"); idx > 0; idx = strings.LastIndex(cleaned[:idx], "}") {
		if insights, ok := decode(cleaned[:idx+1] + "]"); ok {
			return insights
		}
	}

	return nil
}

func decode(payload string) ([]domain.NarrativeInsight, bool) {
	var insights []domain.NarrativeInsight
	if err := json.Unmarshal([]byte(payload), &insights); err != nil {
		return nil, false
	}
	for i := range insights {
		insights[i].Ticker = strings.ToUpper(strings.TrimSpace(insights[i].Ticker))
	}
	return insights, true
}

func cleanFences(s string) string {
	s = strings.TrimSpace(s)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
