// Package storage defines the persistence interfaces for topic documents, pair records, and snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a pair record changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

// DocumentStore reads topic documents with their latest evaluations and summaries.
type DocumentStore interface {
	ListTopicDocuments(ctx context.Context, topicID string) ([]*models.Document, error)
	LatestEvaluations(ctx context.Context, docIDs []string) (map[string]*models.Evaluation, error)
	LatestSummaries(ctx context.Context, docIDs []string) (map[string]*models.Summary, error)
}

// DisagreementStore reads pre-identified disagreements.
type DisagreementStore interface {
	// ListActiveDisagreements returns non-false-positive records ordered by
	// confidence descending, then creation time descending.
	ListActiveDisagreements(ctx context.Context, topicID string, limit int) ([]*models.Disagreement, error)
}

// AIConfigStore reads stored AI provider configurations.
type AIConfigStore interface {
	LatestAIConfig(ctx context.Context) (*models.AIConfig, error)
}

// PairStore persists pairwise consensus records.
type PairStore interface {
	GetUserConsensus(ctx context.Context, topicID, user1ID, user2ID string) (*models.UserConsensus, error)
	// UpsertUserConsensus writes rec if the stored version still equals expectedVersion
	// (0 means the record must not exist yet). On success rec.Version holds the new version.
	UpsertUserConsensus(ctx context.Context, rec *models.UserConsensus, expectedVersion int64) error
	ListUserConsensus(ctx context.Context, topicID string) ([]*models.UserConsensus, error)
}

// SnapshotStore persists topic consensus snapshots.
type SnapshotStore interface {
	RecentSnapshots(ctx context.Context, topicID string, limit int) ([]*models.ConsensusSnapshot, error)
	// InsertSnapshot prunes the topic's history and inserts snap in one transaction,
	// leaving at most retain snapshots. retain <= 0 disables pruning.
	InsertSnapshot(ctx context.Context, snap *models.ConsensusSnapshot, retain int) error
	LatestSnapshot(ctx context.Context, topicID string) (*models.ConsensusSnapshot, error)
	CountSnapshots(ctx context.Context, topicID string) (int64, error)
}

// Stats holds row counts for the status command.
type Stats struct {
	Documents     int64 `json:"documents" db:"documents"`
	Evaluations   int64 `json:"evaluations" db:"evaluations"`
	Summaries     int64 `json:"summaries" db:"summaries"`
	Disagreements int64 `json:"disagreements" db:"disagreements"`
	Pairs         int64 `json:"pairs" db:"pairs"`
	Snapshots     int64 `json:"snapshots" db:"snapshots"`
}

// Storage is the full persistence surface, including the write side used by the importer.
type Storage interface {
	DocumentStore
	DisagreementStore
	AIConfigStore
	PairStore
	SnapshotStore

	CreateDocument(ctx context.Context, doc *models.Document) error
	AddEvaluation(ctx context.Context, eval *models.Evaluation) error
	AddSummary(ctx context.Context, sum *models.Summary) error
	CreateDisagreement(ctx context.Context, d *models.Disagreement) error
	WriteTopic(ctx context.Context, fn func(w TopicWriter) error) error
	SaveAIConfig(ctx context.Context, cfg *models.AIConfig) error

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
