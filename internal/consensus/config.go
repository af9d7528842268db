package consensus

import "github.com/Miyazak1/linklore-sub001/internal/models"

// Config holds tunables for the pair analyzer and topic tracker.
type Config struct {
	// Pair analysis
	ConsensusSimilarityDefault    float64 `yaml:"consensus_similarity_default"`    // default: 0.8
	DisagreementSimilarityDefault float64 `yaml:"disagreement_similarity_default"` // default: 0.2
	BaseWeight                    float64 `yaml:"base_weight"`                     // default: 0.7
	ExtractionMaxTokens           int     `yaml:"extraction_max_tokens"`           // default: 1500

	// Topic tracking
	RetainSnapshots   int     `yaml:"retain_snapshots"`   // default: 50
	TrendWindow       int     `yaml:"trend_window"`       // default: 5
	TrendThreshold    float64 `yaml:"trend_threshold"`    // default: 0.05
	KeyPointLimit     int     `yaml:"key_point_limit"`    // default: 5
	KeyPointMinDocs   int     `yaml:"key_point_min_docs"` // default: 2
	DisagreementLimit int     `yaml:"disagreement_limit"` // default: 10

	// SeverityLabels localize severities in disagreement labels.
	SeverityLabels map[models.Severity]string `yaml:"severity_labels"`
}

// DefaultConfig returns the default consensus configuration.
func DefaultConfig() *Config {
	return &Config{
		ConsensusSimilarityDefault:    0.8,
		DisagreementSimilarityDefault: 0.2,
		BaseWeight:                    0.7,
		ExtractionMaxTokens:           1500,

		RetainSnapshots:   50,
		TrendWindow:       5,
		TrendThreshold:    0.05,
		KeyPointLimit:     5,
		KeyPointMinDocs:   2,
		DisagreementLimit: 10,

		SeverityLabels: map[models.Severity]string{
			models.SeverityHigh:   "高",
			models.SeverityMedium: "中",
			models.SeverityLow:    "低",
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.ConsensusSimilarityDefault == 0 {
		c.ConsensusSimilarityDefault = defaults.ConsensusSimilarityDefault
	}
	if c.DisagreementSimilarityDefault == 0 {
		c.DisagreementSimilarityDefault = defaults.DisagreementSimilarityDefault
	}
	if c.BaseWeight == 0 {
		c.BaseWeight = defaults.BaseWeight
	}
	if c.ExtractionMaxTokens == 0 {
		c.ExtractionMaxTokens = defaults.ExtractionMaxTokens
	}
	if c.RetainSnapshots == 0 {
		c.RetainSnapshots = defaults.RetainSnapshots
	}
	if c.TrendWindow == 0 {
		c.TrendWindow = defaults.TrendWindow
	}
	if c.TrendThreshold == 0 {
		c.TrendThreshold = defaults.TrendThreshold
	}
	if c.KeyPointLimit == 0 {
		c.KeyPointLimit = defaults.KeyPointLimit
	}
	if c.KeyPointMinDocs == 0 {
		c.KeyPointMinDocs = defaults.KeyPointMinDocs
	}
	if c.DisagreementLimit == 0 {
		c.DisagreementLimit = defaults.DisagreementLimit
	}
	if c.SeverityLabels == nil {
		c.SeverityLabels = defaults.SeverityLabels
	}
}
