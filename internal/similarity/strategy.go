package similarity

import (
	"context"
	"fmt"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/embedding"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/vector"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyCache     = "cache"
	StrategyEmbedding = "embedding"
	StrategyAIScore   = "ai_score"
	StrategyNeutral   = "neutral"
)

// Strategy computes a similarity score in [0,1] or fails so the next strategy can run.
type Strategy interface {
	Name() string
	Score(ctx context.Context, text1, text2 string, creds *ai.Credentials) (float64, error)
}

// Chatter sends chat completions. *ai.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, creds *ai.Credentials, messages []ai.Message, opts ai.ChatOptions) (string, error)
}

// EmbeddingStrategy embeds both texts in one request and returns their cosine similarity.
// It requires explicit credentials.
type EmbeddingStrategy struct {
	embedder embedding.Embedder
}

// NewEmbeddingStrategy returns the embedding strategy.
func NewEmbeddingStrategy(embedder embedding.Embedder) *EmbeddingStrategy {
	return &EmbeddingStrategy{embedder: embedder}
}

func (s *EmbeddingStrategy) Name() string { return StrategyEmbedding }

func (s *EmbeddingStrategy) Score(ctx context.Context, text1, text2 string, creds *ai.Credentials) (float64, error) {
	if creds == nil {
		return 0, ai.ErrNoCredentials
	}
	vecs, err := s.embedder.Embed(ctx, creds, []string{text1, text2})
	if err != nil {
		return 0, err
	}
	if len(vecs) != 2 || len(vecs[0]) == 0 || len(vecs[0]) != len(vecs[1]) {
		return 0, fmt.Errorf("%w: expected two equal-length vectors", ai.ErrMalformedResponse)
	}
	return vector.Clamp01(vector.Cosine(vecs[0], vecs[1])), nil
}

// AIScoreStrategy asks a chat model for a bare similarity number.
// Without explicit credentials it uses the process default credentials.
type AIScoreStrategy struct {
	chat     Chatter
	fallback func() *ai.Credentials
}

// NewAIScoreStrategy returns the chat-scoring strategy. fallback may be nil.
func NewAIScoreStrategy(chat Chatter, fallback func() *ai.Credentials) *AIScoreStrategy {
	return &AIScoreStrategy{chat: chat, fallback: fallback}
}

func (s *AIScoreStrategy) Name() string { return StrategyAIScore }

const scoreSystemPrompt = "You compare the meaning of two texts. " +
	"Reply with only a number between 0 and 1, where 1 means identical meaning and 0 means unrelated."

func (s *AIScoreStrategy) Score(ctx context.Context, text1, text2 string, creds *ai.Credentials) (float64, error) {
	if creds == nil && s.fallback != nil {
		creds = s.fallback()
	}
	if creds == nil {
		return 0, ai.ErrNoCredentials
	}
	reply, err := s.chat.Chat(ctx, creds, []ai.Message{
		{Role: "system", Content: scoreSystemPrompt},
		{Role: "user", Content: "Text A: " + text1 + "\nText B: " + text2},
	}, ai.ChatOptions{MaxTokens: 10, Temperature: 0})
	if err != nil {
		return 0, err
	}
	// A reply without a number still counts as an answer: it scores neutral
	// and is cached like any other ai_score result.
	v, err := ai.ParseScore(reply)
	if err != nil {
		return models.NeutralScore, nil
	}
	return vector.Clamp01(v), nil
}

// NeutralStrategy always returns the neutral score.
type NeutralStrategy struct{}

func (NeutralStrategy) Name() string { return StrategyNeutral }

func (NeutralStrategy) Score(ctx context.Context, text1, text2 string, creds *ai.Credentials) (float64, error) {
	return models.NeutralScore, nil
}
