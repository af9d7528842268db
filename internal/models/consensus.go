package models

import "time"

// NeutralScore is the consensus score reported when there is not enough evidence to measure.
const NeutralScore = 0.5

// QualityDecision is the outcome of the quality gate for one evaluation.
type QualityDecision struct {
	IsSufficient  bool     `json:"is_sufficient"`
	OverallScore  float64  `json:"overall_score"`
	CriticalScore float64  `json:"critical_score"`
	Reasons       []string `json:"reasons"`
	Suggestions   []string `json:"suggestions"`
}

// Reply directions between the two canonical users of a pair.
const (
	DirectionUser1ToUser2 = "user1->user2"
	DirectionUser2ToUser1 = "user2->user1"
)

// DiscussionPath records one direct reply edge between the two users of a pair.
// Path is [parentDocID, childDocID]; Depth is the child's distance from the topic root.
type DiscussionPath struct {
	Path      [2]string `json:"path"`
	Depth     int       `json:"depth"`
	Direction string    `json:"direction"`
}

// UserPair is two distinct participants connected by at least one direct reply edge.
// User1ID is always the lexically smaller id.
type UserPair struct {
	User1ID         string           `json:"user1_id"`
	User2ID         string           `json:"user2_id"`
	DocIDs          []string         `json:"doc_ids"`
	DiscussionPaths []DiscussionPath `json:"discussion_paths"`
}

// ConsensusItem is a point both users agree on.
type ConsensusItem struct {
	Text         string   `json:"text"`
	SupportCount int      `json:"support_count"`
	DocIDs       []string `json:"doc_ids"`
	Similarity   float64  `json:"similarity"`
}

// DisagreementItem is a pair of conflicting claims.
type DisagreementItem struct {
	Claim1      string  `json:"claim1"`
	Claim2      string  `json:"claim2"`
	Doc1ID      string  `json:"doc1_id"`
	Doc2ID      string  `json:"doc2_id"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
}

// PairResult is the outcome of a pairwise analysis.
// Measured is false whenever the scores are the neutral default rather than a measurement.
type PairResult struct {
	Consensus       []ConsensusItem    `json:"consensus"`
	Disagreements   []DisagreementItem `json:"disagreements"`
	ConsensusScore  float64            `json:"consensus_score"`
	DivergenceScore float64            `json:"divergence_score"`
	Measured        bool               `json:"measured"`
}

// NeutralPairResult returns the default result used when a pair cannot be measured.
func NeutralPairResult() *PairResult {
	return &PairResult{
		Consensus:       []ConsensusItem{},
		Disagreements:   []DisagreementItem{},
		ConsensusScore:  NeutralScore,
		DivergenceScore: 1 - NeutralScore,
	}
}

// UserConsensus is the persisted pairwise record, keyed by topic and canonical pair.
type UserConsensus struct {
	TopicID         string             `json:"topic_id"`
	User1ID         string             `json:"user1_id"`
	User2ID         string             `json:"user2_id"`
	Consensus       []ConsensusItem    `json:"consensus"`
	Disagreements   []DisagreementItem `json:"disagreements"`
	ConsensusScore  float64            `json:"consensus_score"`
	DivergenceScore float64            `json:"divergence_score"`
	Measured        bool               `json:"measured"`
	DocIDs          []string           `json:"doc_ids"`
	DiscussionPaths []DiscussionPath   `json:"discussion_paths"`
	LastAnalyzedAt  time.Time          `json:"last_analyzed_at"`
	Version         int64              `json:"version"`
}

// Trend is the direction of topic consensus relative to recent history.
type Trend string

const (
	TrendConverging Trend = "converging"
	TrendDiverging  Trend = "diverging"
	TrendStable     Trend = "stable"
)

// ConsensusData is the full structure stored with each snapshot.
type ConsensusData struct {
	ConsensusScore  float64  `json:"consensus_score"`
	DivergenceScore float64  `json:"divergence_score"`
	Trend           Trend    `json:"trend"`
	KeyPoints       []string `json:"key_points"`
	Disagreements   []string `json:"disagreements"`
	Measured        bool     `json:"measured"`
	ClaimCount      int      `json:"claim_count"`
	QualityDocCount int      `json:"quality_doc_count"`
}

// ConsensusSnapshot is a timestamped topic-level consensus measurement.
// ConsensusScore is nil only for legacy rows written without a score.
type ConsensusSnapshot struct {
	ID              string        `json:"id"`
	TopicID         string        `json:"topic_id"`
	SnapshotAt      time.Time     `json:"snapshot_at"`
	ConsensusScore  *float64      `json:"consensus_score"`
	DivergenceScore *float64      `json:"divergence_score"`
	Data            ConsensusData `json:"consensus_data"`
}

// DefaultSnapshot returns the unpersisted snapshot used when a topic lacks data.
func DefaultSnapshot(topicID string, at time.Time) *ConsensusSnapshot {
	consensus, divergence := NeutralScore, 1-NeutralScore
	return &ConsensusSnapshot{
		TopicID:         topicID,
		SnapshotAt:      at,
		ConsensusScore:  &consensus,
		DivergenceScore: &divergence,
		Data: ConsensusData{
			ConsensusScore:  consensus,
			DivergenceScore: divergence,
			Trend:           TrendStable,
			KeyPoints:       []string{},
			Disagreements:   []string{},
		},
	}
}
