package quality

import (
	"fmt"
	"math"
)

// DefaultDiscipline is the rubric used when an evaluation has no or an unknown discipline.
const DefaultDiscipline = "default"

// Rubric weights dimensions for one discipline and names its critical dimensions.
type Rubric struct {
	Weights  map[string]float64 `yaml:"weights"`
	Critical []string           `yaml:"critical"`
}

// Thresholds are the pass marks of the four gate checks.
type Thresholds struct {
	MinOverall   float64 `yaml:"min_overall"`   // default: 6.0
	MinCritical  float64 `yaml:"min_critical"`  // default: 6.0
	MinViewpoint float64 `yaml:"min_viewpoint"` // default: 5.0
	BasicFloor   float64 `yaml:"basic_floor"`   // default: 4.0
}

// Config holds all quality gate configuration.
type Config struct {
	Thresholds Thresholds        `yaml:"thresholds"`
	Rubrics    map[string]Rubric `yaml:"rubrics"`
}

// DefaultConfig returns the default rubric table and thresholds.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			MinOverall:   6.0,
			MinCritical:  6.0,
			MinViewpoint: 5.0,
			BasicFloor:   4.0,
		},
		Rubrics: map[string]Rubric{
			DefaultDiscipline: {
				Weights:  weights(0.25, 0.25, 0.20, 0.10, 0.10, 0.10),
				Critical: []string{"viewpoint", "logic", "evidence"},
			},
			"philosophy": {
				Weights:  weights(0.25, 0.30, 0.15, 0.10, 0.10, 0.10),
				Critical: []string{"viewpoint", "logic"},
			},
			"history": {
				Weights:  weights(0.20, 0.20, 0.30, 0.10, 0.10, 0.10),
				Critical: []string{"evidence", "logic", "viewpoint"},
			},
			"literature": {
				Weights:  weights(0.25, 0.15, 0.15, 0.15, 0.20, 0.10),
				Critical: []string{"viewpoint", "language"},
			},
			"science": {
				Weights:  weights(0.15, 0.30, 0.30, 0.10, 0.05, 0.10),
				Critical: []string{"logic", "evidence"},
			},
			"social_science": {
				Weights:  weights(0.20, 0.25, 0.25, 0.10, 0.10, 0.10),
				Critical: []string{"viewpoint", "logic", "evidence"},
			},
		},
	}
}

// Dimension names used by the default rubrics.
const (
	DimViewpoint  = "viewpoint"
	DimLogic      = "logic"
	DimEvidence   = "evidence"
	DimStructure  = "structure"
	DimLanguage   = "language"
	DimInnovation = "innovation"
)

func weights(viewpoint, logic, evidence, structure, language, innovation float64) map[string]float64 {
	return map[string]float64{
		DimViewpoint:  viewpoint,
		DimLogic:      logic,
		DimEvidence:   evidence,
		DimStructure:  structure,
		DimLanguage:   language,
		DimInnovation: innovation,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.Thresholds.MinOverall == 0 {
		c.Thresholds.MinOverall = defaults.Thresholds.MinOverall
	}
	if c.Thresholds.MinCritical == 0 {
		c.Thresholds.MinCritical = defaults.Thresholds.MinCritical
	}
	if c.Thresholds.MinViewpoint == 0 {
		c.Thresholds.MinViewpoint = defaults.Thresholds.MinViewpoint
	}
	if c.Thresholds.BasicFloor == 0 {
		c.Thresholds.BasicFloor = defaults.Thresholds.BasicFloor
	}

	if c.Rubrics == nil {
		c.Rubrics = defaults.Rubrics
		return
	}
	for name, r := range defaults.Rubrics {
		if _, ok := c.Rubrics[name]; !ok {
			c.Rubrics[name] = r
		}
	}
}

// Validate checks that every rubric has non-negative weights summing to 1.
func (c *Config) Validate() error {
	if _, ok := c.Rubrics[DefaultDiscipline]; !ok {
		return fmt.Errorf("quality: missing %q rubric", DefaultDiscipline)
	}
	for name, r := range c.Rubrics {
		var sum float64
		for dim, w := range r.Weights {
			if w < 0 {
				return fmt.Errorf("quality: rubric %s: negative weight for %s", name, dim)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("quality: rubric %s: weights sum to %.3f, want 1.0", name, sum)
		}
	}
	return nil
}

// Rubric returns the rubric for discipline, falling back to the default rubric.
func (c *Config) Rubric(discipline string) Rubric {
	if r, ok := c.Rubrics[discipline]; ok && discipline != "" {
		return r
	}
	return c.Rubrics[DefaultDiscipline]
}
