// Package consensus measures agreement between users and across whole topics.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/pairs"
	"github.com/Miyazak1/linklore-sub001/internal/quality"
	"github.com/Miyazak1/linklore-sub001/internal/similarity"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
	"github.com/Miyazak1/linklore-sub001/pkg/utils"
)

// Scorer scores text pairs. *similarity.Service satisfies it.
type Scorer interface {
	SimilarityBatch(ctx context.Context, pairs []similarity.Pair, creds *ai.Credentials) ([]similarity.BatchResult, error)
}

// PairStores is the storage surface used by PairAnalyzer.
type PairStores interface {
	storage.DocumentStore
	storage.PairStore
}

const extractionPrompt = `You compare the claims of two discussion participants.
Find the points both users agree on and the pairs of claims that conflict.
Reply with a single JSON object and nothing else:
{"consensus":[{"text":"...","supportCount":2,"docIds":["..."]}],
 "disagreements":[{"claim1":"...","claim2":"...","doc1Id":"...","doc2Id":"...","description":"..."}]}
Use only the document ids given. Use empty arrays when there is nothing to report.`

type extractedConsensus struct {
	Text         string   `json:"text"`
	SupportCount int      `json:"supportCount"`
	DocIDs       []string `json:"docIds"`
}

type extractedDisagreement struct {
	Claim1      string `json:"claim1"`
	Claim2      string `json:"claim2"`
	Doc1ID      string `json:"doc1Id"`
	Doc2ID      string `json:"doc2Id"`
	Description string `json:"description"`
}

type extraction struct {
	Consensus     []extractedConsensus    `json:"consensus"`
	Disagreements []extractedDisagreement `json:"disagreements"`
}

// PairAnalyzer computes and persists consensus between two users of a topic.
type PairAnalyzer struct {
	store    PairStores
	gate     *quality.Gate
	scorer   Scorer
	chat     similarity.Chatter
	resolver similarity.CredentialResolver
	cfg      *Config
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a PairAnalyzer or TopicTracker.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
	cfg    *Config
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithConfig overrides DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.cfg == nil {
		o.cfg = DefaultConfig()
	}
	o.cfg.ApplyDefaults()
	return o
}

// NewPairAnalyzer creates a pair analyzer. chat and resolver may be nil, in which
// case extraction always comes back empty.
func NewPairAnalyzer(store PairStores, gate *quality.Gate, scorer Scorer, chat similarity.Chatter, resolver similarity.CredentialResolver, opts ...Option) *PairAnalyzer {
	o := buildOptions(opts)
	if gate == nil {
		gate = quality.NewGate(nil)
	}
	return &PairAnalyzer{
		store:    store,
		gate:     gate,
		scorer:   scorer,
		chat:     chat,
		resolver: resolver,
		cfg:      o.cfg,
		logger:   o.logger,
		now:      o.now,
	}
}

// AnalyzePair measures consensus between userA and userB in topicID.
// Users without a reply edge, or with fewer than two quality documents or claims
// on either side, get the unpersisted neutral result. AI failures degrade to an
// unmeasured result; storage failures are returned.
func (a *PairAnalyzer) AnalyzePair(ctx context.Context, topicID, userA, userB string) (*models.PairResult, error) {
	docs, err := a.store.ListTopicDocuments(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list topic documents: %w", err)
	}
	pair := pairs.Lookup(pairs.BuildPairs(docs), userA, userB)
	if pair == nil {
		a.logger.Debug("no reply edge between users",
			zap.String("topic_id", topicID),
			zap.String("user_a", userA),
			zap.String("user_b", userB),
		)
		return models.NeutralPairResult(), nil
	}

	authors := make(map[string]string, len(docs))
	for _, d := range docs {
		authors[d.ID] = d.AuthorID
	}

	evals, err := a.store.LatestEvaluations(ctx, pair.DocIDs)
	if err != nil {
		return nil, fmt.Errorf("load evaluations: %w", err)
	}
	qualityIDs := make([]string, 0, len(pair.DocIDs))
	for _, id := range pair.DocIDs {
		if eval, ok := evals[id]; ok && a.gate.Sufficient(eval) {
			qualityIDs = append(qualityIDs, id)
		}
	}
	if len(qualityIDs) < 2 {
		a.logger.Debug("not enough quality documents for pair",
			zap.String("topic_id", topicID),
			zap.Int("quality_docs", len(qualityIDs)),
		)
		return models.NeutralPairResult(), nil
	}

	// Version is read before any AI call so a concurrent analysis is detected on write.
	expectedVersion := int64(0)
	existing, err := a.store.GetUserConsensus(ctx, topicID, pair.User1ID, pair.User2ID)
	switch {
	case err == nil:
		expectedVersion = existing.Version
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load pair record: %w", err)
	}

	summaries, err := a.store.LatestSummaries(ctx, qualityIDs)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	docText := make(map[string]string, len(qualityIDs))
	var claims1, claims2 []taggedClaim
	for _, id := range qualityIDs {
		sum, ok := summaries[id]
		if !ok {
			continue
		}
		cleaned := cleanClaims(sum.Claims)
		if len(cleaned) == 0 {
			continue
		}
		docText[id] = strings.Join(cleaned, "\n")
		for _, c := range cleaned {
			tc := taggedClaim{DocID: id, Text: c}
			if authors[id] == pair.User1ID {
				claims1 = append(claims1, tc)
			} else {
				claims2 = append(claims2, tc)
			}
		}
	}
	if len(claims1) == 0 || len(claims2) == 0 {
		a.logger.Debug("pair has a side without claims", zap.String("topic_id", topicID))
		return models.NeutralPairResult(), nil
	}

	creds := a.credentials(ctx)
	ext := a.extract(ctx, creds, pair, claims1, claims2)
	result, err := a.score(ctx, creds, ext, docText)
	if err != nil {
		return nil, err
	}

	rec := &models.UserConsensus{
		TopicID:         topicID,
		User1ID:         pair.User1ID,
		User2ID:         pair.User2ID,
		Consensus:       result.Consensus,
		Disagreements:   result.Disagreements,
		ConsensusScore:  result.ConsensusScore,
		DivergenceScore: result.DivergenceScore,
		Measured:        result.Measured,
		DocIDs:          pair.DocIDs,
		DiscussionPaths: pair.DiscussionPaths,
		LastAnalyzedAt:  a.now().UTC(),
	}
	if err := a.store.UpsertUserConsensus(ctx, rec, expectedVersion); err != nil {
		return nil, fmt.Errorf("persist pair record: %w", err)
	}

	a.logger.Info("pair analyzed",
		zap.String("topic_id", topicID),
		zap.String("user1_id", pair.User1ID),
		zap.String("user2_id", pair.User2ID),
		zap.Float64("consensus_score", result.ConsensusScore),
		zap.Int("consensus_items", len(result.Consensus)),
		zap.Int("disagreements", len(result.Disagreements)),
		zap.Bool("measured", result.Measured),
	)
	return result, nil
}

// AnalyzeTopic analyzes every pair of the topic in canonical order and returns the
// results keyed by "user1|user2". It stops at the first storage failure.
func (a *PairAnalyzer) AnalyzeTopic(ctx context.Context, topicID string) (map[string]*models.PairResult, error) {
	docs, err := a.store.ListTopicDocuments(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list topic documents: %w", err)
	}
	out := make(map[string]*models.PairResult)
	for _, p := range pairs.BuildPairs(docs) {
		res, err := a.AnalyzePair(ctx, topicID, p.User1ID, p.User2ID)
		if err != nil {
			return out, fmt.Errorf("analyze %s/%s: %w", p.User1ID, p.User2ID, err)
		}
		out[p.User1ID+"|"+p.User2ID] = res
	}
	return out, nil
}

// GetPair returns the stored record of a pair in either order.
func (a *PairAnalyzer) GetPair(ctx context.Context, topicID, userA, userB string) (*models.UserConsensus, error) {
	u1, u2 := pairs.Canonical(userA, userB)
	return a.store.GetUserConsensus(ctx, topicID, u1, u2)
}

// ListPairs returns all stored pair records of a topic.
func (a *PairAnalyzer) ListPairs(ctx context.Context, topicID string) ([]*models.UserConsensus, error) {
	return a.store.ListUserConsensus(ctx, topicID)
}

type taggedClaim struct {
	DocID string
	Text  string
}

func cleanClaims(claims []string) []string {
	out := make([]string, 0, len(claims))
	for _, c := range claims {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (a *PairAnalyzer) credentials(ctx context.Context) *ai.Credentials {
	if a.resolver == nil {
		return nil
	}
	creds, err := a.resolver.Resolve(ctx)
	if err == nil {
		return creds
	}
	if !errors.Is(err, ai.ErrNoCredentials) {
		a.logger.Warn("credential lookup failed", zap.Error(err))
	}
	return a.resolver.Default()
}

// extract asks the chat model for consensus and disagreement items.
// Any failure yields an empty extraction.
func (a *PairAnalyzer) extract(ctx context.Context, creds *ai.Credentials, pair *models.UserPair, claims1, claims2 []taggedClaim) extraction {
	empty := extraction{}
	if a.chat == nil || creds == nil {
		a.logger.Debug("claim extraction skipped: no chat credentials")
		return empty
	}

	var b strings.Builder
	writeSide := func(user string, claims []taggedClaim) {
		fmt.Fprintf(&b, "User %s:\n", user)
		for _, c := range claims {
			fmt.Fprintf(&b, "- [%s] %s\n", c.DocID, c.Text)
		}
	}
	writeSide(pair.User1ID, claims1)
	b.WriteString("\n")
	writeSide(pair.User2ID, claims2)

	content, err := a.chat.Chat(ctx, creds, []ai.Message{
		{Role: "system", Content: extractionPrompt},
		{Role: "user", Content: b.String()},
	}, ai.ChatOptions{MaxTokens: a.cfg.ExtractionMaxTokens, Temperature: 0.3})
	if err != nil {
		a.logger.Warn("claim extraction failed", zap.Error(err))
		return empty
	}
	parsed := ai.ParseJSONObject[extraction](content)
	if !parsed.OK {
		a.logger.Warn("claim extraction unparseable",
			zap.String("reply", utils.Truncate(content, 200)),
			zap.Error(parsed.Err),
		)
		return empty
	}
	return parsed.Value
}

// score attaches similarities to the extracted items and computes the pair scores.
func (a *PairAnalyzer) score(ctx context.Context, creds *ai.Credentials, ext extraction, docText map[string]string) (*models.PairResult, error) {
	result := &models.PairResult{
		Consensus:     make([]models.ConsensusItem, 0, len(ext.Consensus)),
		Disagreements: make([]models.DisagreementItem, 0, len(ext.Disagreements)),
	}

	var batch []similarity.Pair
	// consensusSlot[i] is the batch index for consensus item i, or -1.
	consensusSlot := make([]int, 0, len(ext.Consensus))
	for _, c := range ext.Consensus {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		docIDs := dedupe(c.DocIDs)
		support := c.SupportCount
		if support <= 0 {
			support = len(docIDs)
		}
		result.Consensus = append(result.Consensus, models.ConsensusItem{
			Text:         text,
			SupportCount: support,
			DocIDs:       docIDs,
			Similarity:   a.cfg.ConsensusSimilarityDefault,
		})
		slot := -1
		if len(docIDs) >= 2 {
			t1, t2 := docText[docIDs[0]], docText[docIDs[1]]
			if t1 != "" && t2 != "" {
				slot = len(batch)
				batch = append(batch, similarity.Pair{Text1: t1, Text2: t2})
			}
		}
		consensusSlot = append(consensusSlot, slot)
	}

	disagreementSlot := make([]int, 0, len(ext.Disagreements))
	for _, d := range ext.Disagreements {
		c1, c2 := strings.TrimSpace(d.Claim1), strings.TrimSpace(d.Claim2)
		if c1 == "" || c2 == "" {
			continue
		}
		result.Disagreements = append(result.Disagreements, models.DisagreementItem{
			Claim1:      c1,
			Claim2:      c2,
			Doc1ID:      d.Doc1ID,
			Doc2ID:      d.Doc2ID,
			Description: strings.TrimSpace(d.Description),
			Similarity:  a.cfg.DisagreementSimilarityDefault,
		})
		disagreementSlot = append(disagreementSlot, len(batch))
		batch = append(batch, similarity.Pair{Text1: c1, Text2: c2})
	}

	if len(batch) > 0 && a.scorer != nil {
		scored, err := a.scorer.SimilarityBatch(ctx, batch, creds)
		if err != nil {
			return nil, fmt.Errorf("score similarities: %w", err)
		}
		measured := func(slot int) (float64, bool) {
			if slot < 0 || slot >= len(scored) || scored[slot].Err != nil || !scored[slot].Measured() {
				return 0, false
			}
			return scored[slot].Score, true
		}
		for i, slot := range consensusSlot {
			if v, ok := measured(slot); ok {
				result.Consensus[i].Similarity = v
			}
		}
		for i, slot := range disagreementSlot {
			if v, ok := measured(slot); ok {
				result.Disagreements[i].Similarity = v
			}
		}
	}

	nc, nd := len(result.Consensus), len(result.Disagreements)
	if nc+nd == 0 {
		result.ConsensusScore = models.NeutralScore
		result.DivergenceScore = 1 - models.NeutralScore
		return result, nil
	}

	sims := make([]float64, nc)
	for i, c := range result.Consensus {
		sims[i] = c.Similarity
	}
	base := float64(nc) / float64(nc+nd)
	score := a.cfg.BaseWeight*base + (1-a.cfg.BaseWeight)*utils.Mean(sims)
	score = min(max(score, 0), 1)
	result.ConsensusScore = score
	result.DivergenceScore = 1 - score
	result.Measured = true
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
