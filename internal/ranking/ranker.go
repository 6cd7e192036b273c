// internal/ranking/ranker.go

// Package ranking scores aggregated candidates against a sourcing request and
// orders them by relevance.
package ranking

import (
	"sort"
	"time"

	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
	"sourcing-match/internal/similarity"
)

type Ranker struct {
	weights Weights
	logger  logger.Logger
}

func NewRanker(weights Weights, log logger.Logger) *Ranker {
	return &Ranker{
		weights: weights,
		logger:  log.WithFields(map[string]interface{}{"component": "ranker"}),
	}
}

// Rank scores every candidate and returns them sorted descending by score.
// The sort is stable: candidates with equal scores keep their aggregation
// order. Ranking is total over its input; a candidate missing a name or
// description scores zero similarity for that field but is never dropped.
func (r *Ranker) Rank(candidates []models.CandidateItem, query string, prefs models.Preferences) []models.ScoredCandidate {
	start := time.Now()

	scored := make([]models.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = models.ScoredCandidate{
			CandidateItem: c,
			Score:         r.Score(c, query, prefs),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	r.logger.Debug("ranking completed", map[string]interface{}{
		"candidates": len(candidates),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return scored
}

// Score computes the relevance of a single candidate, clamped to [0,1].
func (r *Ranker) Score(c models.CandidateItem, query string, prefs models.Preferences) float64 {
	w := r.weights

	score := w.Title*similarity.Jaccard(query, c.Name) +
		w.Description*similarity.Jaccard(query, c.Description)

	// Budget term: reward under-budget prices, penalize over-budget ones.
	// The penalty can drive the raw score negative; the final clamp handles it.
	if prefs.Budget > 0 {
		priceRatio := c.Price / prefs.Budget
		if priceRatio <= 1 {
			score += w.UnderBudgetBonus * (1 - priceRatio)
		} else {
			score -= w.OverBudgetPenalty * (priceRatio - 1)
		}
	}

	if c.SourcePriority > 0 {
		score *= c.SourcePriority
	}

	score *= w.conditionWeight(c.Condition)

	if c.Seller != nil && c.Seller.Rating > 0 {
		score *= c.Seller.Rating / 5
	}

	return clamp(score, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
