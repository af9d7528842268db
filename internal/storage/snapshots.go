package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

type snapshotRow struct {
	ID              string          `db:"id"`
	TopicID         string          `db:"topic_id"`
	SnapshotAt      time.Time       `db:"snapshot_at"`
	ConsensusScore  sql.NullFloat64 `db:"consensus_score"`
	DivergenceScore sql.NullFloat64 `db:"divergence_score"`
	ConsensusData   string          `db:"consensus_data"`
}

const snapshotColumns = `id, topic_id, snapshot_at, consensus_score, divergence_score, consensus_data`

func (r *snapshotRow) toModel() (*models.ConsensusSnapshot, error) {
	snap := &models.ConsensusSnapshot{
		ID:         r.ID,
		TopicID:    r.TopicID,
		SnapshotAt: r.SnapshotAt,
	}
	if r.ConsensusScore.Valid {
		v := r.ConsensusScore.Float64
		snap.ConsensusScore = &v
	}
	if r.DivergenceScore.Valid {
		v := r.DivergenceScore.Float64
		snap.DivergenceScore = &v
	}
	if r.ConsensusData != "" {
		if err := json.Unmarshal([]byte(r.ConsensusData), &snap.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal consensus data: %w", err)
		}
	}
	return snap, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

// RecentSnapshots returns up to limit snapshots of a topic, newest first.
func (s *SQLiteStorage) RecentSnapshots(ctx context.Context, topicID string, limit int) ([]*models.ConsensusSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM consensus_snapshots
		WHERE topic_id = ? ORDER BY snapshot_at DESC, rowid DESC`
	args := []any{topicID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*models.ConsensusSnapshot, 0, len(rows))
	for i := range rows {
		snap, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// LatestSnapshot returns the newest snapshot of a topic.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context, topicID string) (*models.ConsensusSnapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+snapshotColumns+` FROM consensus_snapshots
		 WHERE topic_id = ? ORDER BY snapshot_at DESC, rowid DESC LIMIT 1`, topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// InsertSnapshot prunes older snapshots so at most retain remain after the insert, then inserts snap.
// Both statements run in one transaction.
func (s *SQLiteStorage) InsertSnapshot(ctx context.Context, snap *models.ConsensusSnapshot, retain int) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.SnapshotAt.IsZero() {
		snap.SnapshotAt = time.Now()
	}
	snap.SnapshotAt = snap.SnapshotAt.UTC()
	dataJSON, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal consensus data: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if retain > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM consensus_snapshots
			 WHERE topic_id = ? AND id NOT IN (
				SELECT id FROM consensus_snapshots
				WHERE topic_id = ? ORDER BY snapshot_at DESC, rowid DESC LIMIT ?
			 )`, snap.TopicID, snap.TopicID, retain-1)
		if err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
	}

	row := snapshotRow{
		ID:              snap.ID,
		TopicID:         snap.TopicID,
		SnapshotAt:      snap.SnapshotAt,
		ConsensusScore:  nullFloat(snap.ConsensusScore),
		DivergenceScore: nullFloat(snap.DivergenceScore),
		ConsensusData:   string(dataJSON),
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO consensus_snapshots (`+snapshotColumns+`)
		 VALUES (:id, :topic_id, :snapshot_at, :consensus_score, :divergence_score, :consensus_data)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return tx.Commit()
}

// CountSnapshots returns the number of stored snapshots of a topic.
func (s *SQLiteStorage) CountSnapshots(ctx context.Context, topicID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM consensus_snapshots WHERE topic_id = ?`, topicID)
	return count, err
}
