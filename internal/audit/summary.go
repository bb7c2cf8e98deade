package audit

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mkamal/stockaudit/internal/domain"
)

// Summarize computes the batch-level statistics attached to an audit run.
func Summarize(results []domain.AnalysisResult) domain.BatchSummary {
	s := domain.BatchSummary{Count: len(results)}
	if len(results) == 0 {
		return s
	}

	scores := make([]float64, len(results))
	s.MinScore = results[0].Score
	s.MaxScore = results[0].Score
	for i, r := range results {
		scores[i] = float64(r.Score)
		if r.Score < s.MinScore {
			s.MinScore = r.Score
		}
		if r.Score > s.MaxScore {
			s.MaxScore = r.Score
		}
		if !r.FirewallPass {
			s.Failed++
		}
	}

	s.MeanScore = stat.Mean(scores, nil)
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}

	// stat.Quantile requires sorted input.
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return s
}
