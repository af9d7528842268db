package quality

import (
	"math"
	"sync"
	"testing"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

func eval(discipline string, scores map[string]float64) *models.Evaluation {
	return &models.Evaluation{Scores: scores, Discipline: discipline}
}

func allScores(v float64) map[string]float64 {
	return map[string]float64{
		DimViewpoint: v, DimLogic: v, DimEvidence: v,
		DimStructure: v, DimLanguage: v, DimInnovation: v,
	}
}

func TestGate_Evaluate(t *testing.T) {
	g := NewGate(nil)
	tests := []struct {
		name        string
		eval        *models.Evaluation
		want        bool
		wantReasons int
	}{
		{"all strong", eval("", allScores(8)), true, 0},
		{"all weak", eval("", allScores(3)), false, 4},
		{"nil evaluation", nil, false, 1},
		{"empty scores skip floor", eval("", map[string]float64{}), false, 3},
		{"weak viewpoint only", eval("", map[string]float64{
			DimViewpoint: 4.5, DimLogic: 9, DimEvidence: 9, DimStructure: 9, DimLanguage: 9, DimInnovation: 9,
		}), false, 1},
		{"unknown discipline uses default", eval("astrology", allScores(7)), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Evaluate(tt.eval)
			if d.IsSufficient != tt.want {
				t.Errorf("IsSufficient = %v, want %v (reasons %v)", d.IsSufficient, tt.want, d.Reasons)
			}
			if len(d.Reasons) != tt.wantReasons || len(d.Suggestions) != tt.wantReasons {
				t.Errorf("reasons = %v, suggestions = %v, want %d each", d.Reasons, d.Suggestions, tt.wantReasons)
			}
		})
	}
}

func TestGate_Scores(t *testing.T) {
	g := NewGate(nil)
	d := g.Evaluate(eval("", map[string]float64{
		DimViewpoint: 8, DimLogic: 6, DimEvidence: 7, DimStructure: 5, DimLanguage: 5, DimInnovation: 5,
	}))
	// 8*.25 + 6*.25 + 7*.2 + 5*.3 = 2 + 1.5 + 1.4 + 1.5
	if math.Abs(d.OverallScore-6.4) > 1e-9 {
		t.Errorf("overall = %v, want 6.4", d.OverallScore)
	}
	if math.Abs(d.CriticalScore-7) > 1e-9 {
		t.Errorf("critical = %v, want 7", d.CriticalScore)
	}
}

func TestGate_AbsentDimensionsLeaveDenominator(t *testing.T) {
	g := NewGate(nil)
	d := g.Evaluate(eval("", map[string]float64{DimViewpoint: 8, DimLogic: 6}))
	if math.Abs(d.OverallScore-7) > 1e-9 {
		t.Errorf("overall = %v, want 7", d.OverallScore)
	}
	if math.Abs(d.CriticalScore-7) > 1e-9 {
		t.Errorf("critical = %v, want 7", d.CriticalScore)
	}
	if !d.IsSufficient {
		t.Errorf("expected sufficient: %v", d.Reasons)
	}
}

func TestGate_DisciplineRubric(t *testing.T) {
	g := NewGate(nil)
	// Science weighs logic and evidence; weak language matters little.
	scores := map[string]float64{
		DimViewpoint: 6, DimLogic: 8, DimEvidence: 8, DimStructure: 6, DimLanguage: 1, DimInnovation: 6,
	}
	if !g.Sufficient(eval("science", scores)) {
		t.Error("science evaluation should pass")
	}
	// Literature treats language as critical.
	if g.Sufficient(eval("literature", scores)) {
		t.Error("literature evaluation should fail on language")
	}
}

func TestGate_Monotone(t *testing.T) {
	g := NewGate(nil)
	dims := []string{DimViewpoint, DimLogic, DimEvidence, DimStructure, DimLanguage, DimInnovation}
	bases := []map[string]float64{
		allScores(6),
		{DimViewpoint: 5, DimLogic: 7, DimEvidence: 6, DimStructure: 6, DimLanguage: 6, DimInnovation: 6},
		{DimViewpoint: 6, DimLogic: 6, DimEvidence: 6},
	}
	for _, discipline := range []string{"", "science", "literature", "history"} {
		for _, base := range bases {
			before := g.Sufficient(eval(discipline, base))
			if !before {
				continue
			}
			for _, dim := range dims {
				for _, delta := range []float64{0.5, 1, 3} {
					raised := make(map[string]float64, len(base))
					for k, v := range base {
						raised[k] = v
					}
					if _, ok := raised[dim]; !ok {
						continue
					}
					raised[dim] += delta
					if !g.Sufficient(eval(discipline, raised)) {
						t.Errorf("%s: raising %s by %v flipped sufficient to insufficient", discipline, dim, delta)
					}
				}
			}
		}
	}
}

func TestGate_SetConfig(t *testing.T) {
	g := NewGate(nil)
	e := eval("", allScores(6.5))
	if !g.Sufficient(e) {
		t.Fatal("expected pass under defaults")
	}
	g.SetConfig(&Config{Thresholds: Thresholds{MinOverall: 7}})
	if g.Sufficient(e) {
		t.Error("stricter threshold should fail")
	}
	if g.Config().Thresholds.MinViewpoint != 5 {
		t.Error("unset thresholds should take defaults")
	}
	if _, ok := g.Config().Rubrics["science"]; !ok {
		t.Error("missing rubrics should take defaults")
	}
}

func TestGate_ConcurrentSetConfig(t *testing.T) {
	g := NewGate(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.SetConfig(DefaultConfig())
		}()
		go func() {
			defer wg.Done()
			_ = g.Evaluate(eval("", allScores(7)))
		}()
	}
	wg.Wait()
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.Rubrics["science"] = Rubric{Weights: map[string]float64{DimLogic: 0.5}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for weights not summing to 1")
	}
	neg := DefaultConfig()
	neg.Rubrics["x"] = Rubric{Weights: map[string]float64{DimLogic: 1.5, DimEvidence: -0.5}}
	if err := neg.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
	missing := &Config{Rubrics: map[string]Rubric{}}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing default rubric")
	}
}
