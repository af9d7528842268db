// Package quality decides whether a document's evaluation is good enough for its claims to enter analysis.
package quality

import (
	"fmt"
	"sync/atomic"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

// Gate scores evaluations against a discipline rubric. The configuration can be
// swapped at any time with SetConfig; each Evaluate call sees one consistent config.
type Gate struct {
	cfg atomic.Pointer[Config]
}

// NewGate creates a gate. A nil config uses DefaultConfig.
func NewGate(cfg *Config) *Gate {
	g := &Gate{}
	g.SetConfig(cfg)
	return g
}

// SetConfig replaces the active configuration.
func (g *Gate) SetConfig(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	g.cfg.Store(cfg)
}

// Config returns the active configuration.
func (g *Gate) Config() *Config {
	return g.cfg.Load()
}

// Evaluate applies the four gate checks to one evaluation.
func (g *Gate) Evaluate(eval *models.Evaluation) models.QualityDecision {
	cfg := g.cfg.Load()
	t := cfg.Thresholds
	decision := models.QualityDecision{
		Reasons:     []string{},
		Suggestions: []string{},
	}
	if eval == nil {
		decision.Reasons = append(decision.Reasons, "no evaluation available")
		decision.Suggestions = append(decision.Suggestions, "wait for the document to be evaluated")
		return decision
	}

	rubric := cfg.Rubric(eval.Discipline)
	decision.OverallScore = weightedScore(eval.Scores, rubric.Weights)
	decision.CriticalScore = criticalScore(eval.Scores, rubric.Critical)

	fail := func(reason, suggestion string) {
		decision.Reasons = append(decision.Reasons, reason)
		decision.Suggestions = append(decision.Suggestions, suggestion)
	}

	if decision.OverallScore < t.MinOverall {
		fail(fmt.Sprintf("overall score %.1f is below %.1f", decision.OverallScore, t.MinOverall),
			"improve the argument as a whole before it is used in consensus analysis")
	}
	if decision.CriticalScore < t.MinCritical {
		fail(fmt.Sprintf("critical dimension score %.1f is below %.1f", decision.CriticalScore, t.MinCritical),
			fmt.Sprintf("strengthen the critical dimensions: %v", rubric.Critical))
	}
	if vp := eval.Scores[DimViewpoint]; vp < t.MinViewpoint {
		fail(fmt.Sprintf("viewpoint score %.1f is below %.1f", vp, t.MinViewpoint),
			"state a clear position")
	}
	if len(eval.Scores) > 0 && !anyAtLeast(eval.Scores, t.BasicFloor) {
		fail(fmt.Sprintf("no dimension reaches the basic floor of %.1f", t.BasicFloor),
			"revise the document; every dimension is weak")
	}

	decision.IsSufficient = len(decision.Reasons) == 0
	return decision
}

// Sufficient is shorthand for Evaluate(eval).IsSufficient.
func (g *Gate) Sufficient(eval *models.Evaluation) bool {
	return g.Evaluate(eval).IsSufficient
}

// weightedScore averages the present dimensions by weight; weights of absent
// dimensions are left out of the denominator.
func weightedScore(scores, weights map[string]float64) float64 {
	var sum, total float64
	for dim, w := range weights {
		s, ok := scores[dim]
		if !ok {
			continue
		}
		sum += s * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

func criticalScore(scores map[string]float64, critical []string) float64 {
	var sum float64
	var n int
	for _, dim := range critical {
		if s, ok := scores[dim]; ok {
			sum += s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func anyAtLeast(scores map[string]float64, floor float64) bool {
	for dim, s := range scores {
		if dim == "_reasoning" {
			continue
		}
		if s >= floor {
			return true
		}
	}
	return false
}
