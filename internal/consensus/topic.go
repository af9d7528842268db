package consensus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/quality"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

// TopicStores is the storage surface used by TopicTracker.
type TopicStores interface {
	storage.DocumentStore
	storage.DisagreementStore
	storage.SnapshotStore
}

// TopicTracker records topic-level consensus snapshots from lexical claim overlap.
type TopicTracker struct {
	store  TopicStores
	gate   *quality.Gate
	cfg    *Config
	logger *zap.Logger
	now    func() time.Time
}

// NewTopicTracker creates a tracker. A nil gate uses the default quality rubric.
func NewTopicTracker(store TopicStores, gate *quality.Gate, opts ...Option) *TopicTracker {
	o := buildOptions(opts)
	if gate == nil {
		gate = quality.NewGate(nil)
	}
	return &TopicTracker{
		store:  store,
		gate:   gate,
		cfg:    o.cfg,
		logger: o.logger,
		now:    o.now,
	}
}

// TrackConsensus computes a snapshot of topicID and persists it, keeping the
// configured number of most recent snapshots. Topics with fewer than two quality
// documents, or without any claim, get the unpersisted default snapshot.
func (t *TopicTracker) TrackConsensus(ctx context.Context, topicID string) (*models.ConsensusSnapshot, error) {
	now := t.now().UTC()

	docs, err := t.store.ListTopicDocuments(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list topic documents: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	evals, err := t.store.LatestEvaluations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load evaluations: %w", err)
	}
	qualityIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if eval, ok := evals[id]; ok && t.gate.Sufficient(eval) {
			qualityIDs = append(qualityIDs, id)
		}
	}
	if len(qualityIDs) < 2 {
		t.logger.Debug("not enough quality documents for snapshot",
			zap.String("topic_id", topicID),
			zap.Int("documents", len(docs)),
			zap.Int("quality_docs", len(qualityIDs)),
		)
		return models.DefaultSnapshot(topicID, now), nil
	}

	summaries, err := t.store.LatestSummaries(ctx, qualityIDs)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	var claims []string
	perDoc := make([][]string, 0, len(qualityIDs))
	for _, id := range qualityIDs {
		sum, ok := summaries[id]
		if !ok {
			continue
		}
		cleaned := cleanClaims(sum.Claims)
		claims = append(claims, cleaned...)
		perDoc = append(perDoc, cleaned)
	}
	if len(claims) == 0 {
		t.logger.Debug("quality documents carry no claims", zap.String("topic_id", topicID))
		snap := models.DefaultSnapshot(topicID, now)
		snap.Data.QualityDocCount = len(qualityIDs)
		return snap, nil
	}

	score := LexicalConsensus(claims)
	divergence := 1 - score

	disagreements, err := t.disagreementLabels(ctx, topicID)
	if err != nil {
		return nil, err
	}

	prior, err := t.store.RecentSnapshots(ctx, topicID, t.cfg.TrendWindow)
	if err != nil {
		return nil, fmt.Errorf("load recent snapshots: %w", err)
	}
	priorScores := make([]*float64, len(prior))
	for i, p := range prior {
		priorScores[i] = p.ConsensusScore
	}
	trend := ClassifyTrend(score, priorScores, t.cfg.TrendThreshold)

	snap := &models.ConsensusSnapshot{
		TopicID:         topicID,
		SnapshotAt:      now,
		ConsensusScore:  &score,
		DivergenceScore: &divergence,
		Data: models.ConsensusData{
			ConsensusScore:  score,
			DivergenceScore: divergence,
			Trend:           trend,
			KeyPoints:       KeyPoints(perDoc, t.cfg.KeyPointMinDocs, t.cfg.KeyPointLimit),
			Disagreements:   disagreements,
			Measured:        len(claims) >= 2,
			ClaimCount:      len(claims),
			QualityDocCount: len(qualityIDs),
		},
	}
	if err := t.store.InsertSnapshot(ctx, snap, t.cfg.RetainSnapshots); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	t.logger.Info("consensus snapshot recorded",
		zap.String("topic_id", topicID),
		zap.String("snapshot_id", snap.ID),
		zap.Float64("consensus_score", score),
		zap.String("trend", string(trend)),
		zap.Int("claims", len(claims)),
	)
	return snap, nil
}

// LatestSnapshot returns the most recent stored snapshot, or storage.ErrNotFound.
func (t *TopicTracker) LatestSnapshot(ctx context.Context, topicID string) (*models.ConsensusSnapshot, error) {
	return t.store.LatestSnapshot(ctx, topicID)
}

// SnapshotHistory returns up to limit stored snapshots, newest first.
func (t *TopicTracker) SnapshotHistory(ctx context.Context, topicID string, limit int) ([]*models.ConsensusSnapshot, error) {
	if limit <= 0 || limit > t.cfg.RetainSnapshots {
		limit = t.cfg.RetainSnapshots
	}
	return t.store.RecentSnapshots(ctx, topicID, limit)
}

func (t *TopicTracker) disagreementLabels(ctx context.Context, topicID string) ([]string, error) {
	records, err := t.store.ListActiveDisagreements(ctx, topicID, t.cfg.DisagreementLimit)
	if err != nil {
		return nil, fmt.Errorf("load disagreements: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Severity.Rank() > records[j].Severity.Rank()
	})
	labels := make([]string, len(records))
	for i, d := range records {
		labels[i] = FormatDisagreement(d, t.cfg.SeverityLabels)
	}
	return labels, nil
}

// FormatDisagreement renders a disagreement as "title（severity）：description".
func FormatDisagreement(d *models.Disagreement, severityLabels map[models.Severity]string) string {
	label, ok := severityLabels[d.Severity]
	if !ok {
		label = string(d.Severity)
	}
	return fmt.Sprintf("%s（%s）：%s", d.Title, label, d.Description)
}

// KeyPoints returns claims that appear verbatim in at least minDocs documents,
// most widely shared first, ties in first-seen order, at most limit entries.
func KeyPoints(perDoc [][]string, minDocs, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, claims := range perDoc {
		seen := make(map[string]struct{}, len(claims))
		for _, c := range claims {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			if counts[c] == 0 {
				order = append(order, c)
			}
			counts[c]++
		}
	}

	out := make([]string, 0, len(order))
	for _, c := range order {
		if counts[c] >= minDocs {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
