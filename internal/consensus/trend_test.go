package consensus

import (
	"testing"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

func f(v float64) *float64 { return &v }

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prior   []*float64
		want    models.Trend
	}{
		{"no history", 0.9, nil, models.TrendStable},
		{"only nulls", 0.9, []*float64{nil, nil}, models.TrendStable},
		{"converging", 0.47, []*float64{f(0.40)}, models.TrendConverging},
		{"small rise", 0.41, []*float64{f(0.40)}, models.TrendStable},
		{"diverging", 0.30, []*float64{f(0.40)}, models.TrendDiverging},
		{"nulls ignored", 0.47, []*float64{nil, f(0.40), nil}, models.TrendConverging},
		{"mean of window", 0.5, []*float64{f(0.3), f(0.5), f(0.7)}, models.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.current, tt.prior, 0.05); got != tt.want {
				t.Errorf("ClassifyTrend = %s, want %s", got, tt.want)
			}
		})
	}
}
