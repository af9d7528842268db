package consensus

import (
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

// ClassifyTrend compares current to the mean of the prior scores, ignoring nils.
// With no usable prior score the trend is stable.
func ClassifyTrend(current float64, prior []*float64, threshold float64) models.Trend {
	values := make([]float64, 0, len(prior))
	for _, p := range prior {
		if p != nil {
			values = append(values, *p)
		}
	}
	if len(values) == 0 {
		return models.TrendStable
	}
	diff := current - utils.Mean(values)
	switch {
	case diff > threshold:
		return models.TrendConverging
	case diff < -threshold:
		return models.TrendDiverging
	default:
		return models.TrendStable
	}
}
