// internal/ranking/weights.go
package ranking

import (
	"sourcing-match/internal/common/config"
	"sourcing-match/internal/models"
)

// Weights are the scoring constants of the ranking formula. The defaults are
// business tuning carried over unchanged; they are configuration, not derived
// values, and should only move via config overrides.
type Weights struct {
	Title             float64
	Description       float64
	UnderBudgetBonus  float64
	OverBudgetPenalty float64
	Condition         map[models.Condition]float64
	UnknownCondition  float64
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Title:             0.6,
		Description:       0.3,
		UnderBudgetBonus:  0.2,
		OverBudgetPenalty: 0.3,
		Condition: map[models.Condition]float64{
			models.ConditionNew:     1.0,
			models.ConditionLikeNew: 0.9,
			models.ConditionGood:    0.8,
			models.ConditionFair:    0.6,
		},
		UnknownCondition: 0.7,
	}
}

// WeightsFromConfig overlays configured scoring constants on the defaults.
// Zero-valued entries keep the default, so a partial config section only
// moves the weights it names.
func WeightsFromConfig(cfg config.MatchingConfig) Weights {
	w := DefaultWeights()

	if cfg.TitleWeight > 0 {
		w.Title = cfg.TitleWeight
	}
	if cfg.DescriptionWeight > 0 {
		w.Description = cfg.DescriptionWeight
	}
	if cfg.UnderBudgetBonus > 0 {
		w.UnderBudgetBonus = cfg.UnderBudgetBonus
	}
	if cfg.OverBudgetPenalty > 0 {
		w.OverBudgetPenalty = cfg.OverBudgetPenalty
	}
	if cfg.UnknownCondition > 0 {
		w.UnknownCondition = cfg.UnknownCondition
	}
	for name, weight := range cfg.ConditionWeights {
		w.Condition[models.Condition(name)] = weight
	}

	return w
}

func (w Weights) conditionWeight(c models.Condition) float64 {
	if weight, ok := w.Condition[c]; ok {
		return weight
	}
	return w.UnknownCondition
}
