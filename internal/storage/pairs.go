package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

type userConsensusRow struct {
	TopicID         string    `db:"topic_id"`
	User1ID         string    `db:"user1_id"`
	User2ID         string    `db:"user2_id"`
	Consensus       string    `db:"consensus"`
	Disagreements   string    `db:"disagreements"`
	ConsensusScore  float64   `db:"consensus_score"`
	DivergenceScore float64   `db:"divergence_score"`
	Measured        bool      `db:"measured"`
	DocIDs          string    `db:"doc_ids"`
	DiscussionPaths string    `db:"discussion_paths"`
	LastAnalyzedAt  time.Time `db:"last_analyzed_at"`
	Version         int64     `db:"version"`
}

const userConsensusColumns = `topic_id, user1_id, user2_id, consensus, disagreements,
	consensus_score, divergence_score, measured, doc_ids, discussion_paths, last_analyzed_at, version`

func (r *userConsensusRow) toModel() (*models.UserConsensus, error) {
	rec := &models.UserConsensus{
		TopicID:         r.TopicID,
		User1ID:         r.User1ID,
		User2ID:         r.User2ID,
		ConsensusScore:  r.ConsensusScore,
		DivergenceScore: r.DivergenceScore,
		Measured:        r.Measured,
		LastAnalyzedAt:  r.LastAnalyzedAt,
		Version:         r.Version,
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{r.Consensus, &rec.Consensus},
		{r.Disagreements, &rec.Disagreements},
		{r.DocIDs, &rec.DocIDs},
		{r.DiscussionPaths, &rec.DiscussionPaths},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pair record: %w", err)
		}
	}
	return rec, nil
}

func fromUserConsensus(rec *models.UserConsensus) (*userConsensusRow, error) {
	row := &userConsensusRow{
		TopicID:         rec.TopicID,
		User1ID:         rec.User1ID,
		User2ID:         rec.User2ID,
		ConsensusScore:  rec.ConsensusScore,
		DivergenceScore: rec.DivergenceScore,
		Measured:        rec.Measured,
		LastAnalyzedAt:  rec.LastAnalyzedAt.UTC(),
	}
	fields := []struct {
		src any
		dst *string
	}{
		{nonNil(rec.Consensus), &row.Consensus},
		{nonNil(rec.Disagreements), &row.Disagreements},
		{nonNil(rec.DocIDs), &row.DocIDs},
		{nonNil(rec.DiscussionPaths), &row.DiscussionPaths},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pair record: %w", err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

// nonNil makes nil slices encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// GetUserConsensus returns the stored record for a canonical pair.
func (s *SQLiteStorage) GetUserConsensus(ctx context.Context, topicID, user1ID, user2ID string) (*models.UserConsensus, error) {
	var row userConsensusRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+userConsensusColumns+` FROM user_consensus
		 WHERE topic_id = ? AND user1_id = ? AND user2_id = ?`,
		topicID, user1ID, user2ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// UpsertUserConsensus inserts or replaces a pair record in one transaction,
// failing with ErrVersionConflict when the stored version differs from expectedVersion.
func (s *SQLiteStorage) UpsertUserConsensus(ctx context.Context, rec *models.UserConsensus, expectedVersion int64) error {
	row, err := fromUserConsensus(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current int64
	err = tx.GetContext(ctx, &current,
		`SELECT version FROM user_consensus WHERE topic_id = ? AND user1_id = ? AND user2_id = ?`,
		row.TopicID, row.User1ID, row.User2ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if expectedVersion != 0 {
			return fmt.Errorf("pair %s/%s: %w", row.User1ID, row.User2ID, ErrVersionConflict)
		}
		row.Version = 1
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO user_consensus (`+userConsensusColumns+`)
			 VALUES (:topic_id, :user1_id, :user2_id, :consensus, :disagreements,
				:consensus_score, :divergence_score, :measured, :doc_ids, :discussion_paths, :last_analyzed_at, :version)`,
			row)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if current != expectedVersion {
			return fmt.Errorf("pair %s/%s at version %d, expected %d: %w",
				row.User1ID, row.User2ID, current, expectedVersion, ErrVersionConflict)
		}
		row.Version = current + 1
		_, err = tx.NamedExecContext(ctx,
			`UPDATE user_consensus SET
				consensus = :consensus,
				disagreements = :disagreements,
				consensus_score = :consensus_score,
				divergence_score = :divergence_score,
				measured = :measured,
				doc_ids = :doc_ids,
				discussion_paths = :discussion_paths,
				last_analyzed_at = :last_analyzed_at,
				version = :version
			 WHERE topic_id = :topic_id AND user1_id = :user1_id AND user2_id = :user2_id`,
			row)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	rec.Version = row.Version
	return nil
}

// ListUserConsensus returns all pair records of a topic ordered by pair key.
func (s *SQLiteStorage) ListUserConsensus(ctx context.Context, topicID string) ([]*models.UserConsensus, error) {
	var rows []userConsensusRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+userConsensusColumns+` FROM user_consensus
		 WHERE topic_id = ? ORDER BY user1_id, user2_id`, topicID)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

func rowsToModels(rows []userConsensusRow) ([]*models.UserConsensus, error) {
	out := make([]*models.UserConsensus, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
