// Package similarity scores the semantic similarity of two texts through a cached chain of strategies.
package similarity

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
	"github.com/Miyazak1/linklore-sub001/internal/cache"
	"github.com/Miyazak1/linklore-sub001/internal/embedding"
	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/textkey"
)

// ErrEmptyText is returned when either input is empty.
var ErrEmptyText = errors.New("similarity: empty text")

const (
	// DefaultCacheTTL is how long a measured score is cached.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultBatchSize is how many similarity calls run concurrently in a batch.
	DefaultBatchSize = 5
)

// Result is a served similarity score.
type Result struct {
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
	Cached   bool    `json:"cached"`
}

// Measured reports whether the score came from a real measurement rather than the neutral default.
func (r Result) Measured() bool {
	return r.Strategy != StrategyNeutral
}

// Pair is one input to SimilarityBatch.
type Pair struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

// CredentialResolver supplies credentials when the caller brings none. *ai.Resolver satisfies it.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*ai.Credentials, error)
	Default() *ai.Credentials
}

// Service serves similarity scores: cache first, then each strategy in order.
type Service struct {
	cache      cache.Cache
	ttl        time.Duration
	batchSize  int
	resolver   CredentialResolver
	strategies []Strategy
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCacheTTL sets the cache TTL for measured scores.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBatchSize sets the batch concurrency.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithStrategies replaces the strategy chain. The neutral strategy is always appended
// if the chain does not end with it.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Service) {
		s.strategies = strategies
	}
}

// NewService builds the default chain: embedding, then ai_score, then neutral.
// Any of embedder, chat, and resolver may be nil; the matching strategy is then left out.
func NewService(c cache.Cache, embedder embedding.Embedder, chat Chatter, resolver CredentialResolver, opts ...Option) *Service {
	var fallback func() *ai.Credentials
	if resolver != nil {
		fallback = resolver.Default
	}
	s := &Service{
		cache:     c,
		ttl:       DefaultCacheTTL,
		batchSize: DefaultBatchSize,
		resolver:  resolver,
		logger:    zap.NewNop(),
	}
	if embedder != nil {
		s.strategies = append(s.strategies, NewEmbeddingStrategy(embedder))
	}
	if chat != nil {
		s.strategies = append(s.strategies, NewAIScoreStrategy(chat, fallback))
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NopCache{}
	}
	if n := len(s.strategies); n == 0 || s.strategies[n-1].Name() != StrategyNeutral {
		s.strategies = append(s.strategies, NeutralStrategy{})
	}
	return s
}

// Similarity returns the similarity of text1 and text2 in [0,1]. creds may be nil.
// Only empty input and context cancellation produce errors.
func (s *Service) Similarity(ctx context.Context, text1, text2 string, creds *ai.Credentials) (Result, error) {
	if isEmpty(text1) || isEmpty(text2) {
		return Result{}, ErrEmptyText
	}
	return s.similarity(ctx, text1, text2, s.resolve(ctx, creds))
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (s *Service) resolve(ctx context.Context, creds *ai.Credentials) *ai.Credentials {
	if creds != nil || s.resolver == nil {
		return creds
	}
	resolved, err := s.resolver.Resolve(ctx)
	if err != nil {
		if !errors.Is(err, ai.ErrNoCredentials) {
			s.logger.Warn("credential lookup failed", zap.Error(err))
		}
		return nil
	}
	return resolved
}

func (s *Service) similarity(ctx context.Context, text1, text2 string, creds *ai.Credentials) (Result, error) {
	key := textkey.PairKey(text1, text2)
	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("similarity cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return Result{Score: v, Strategy: StrategyCache, Cached: true}, nil
	}

	for _, strat := range s.strategies {
		score, err := strat.Score(ctx, text1, text2, creds)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			s.logger.Debug("similarity strategy failed",
				zap.String("strategy", strat.Name()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Debug("similarity strategy served",
			zap.String("strategy", strat.Name()),
			zap.Float64("score", score),
		)
		res := Result{Score: score, Strategy: strat.Name()}
		if res.Measured() {
			if err := s.cache.Set(ctx, key, score, s.ttl); err != nil {
				s.logger.Warn("similarity cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return res, nil
	}
	return Result{Score: models.NeutralScore, Strategy: StrategyNeutral}, nil
}

// BatchResult is one entry of SimilarityBatch; Err is set when that pair could not be scored.
type BatchResult struct {
	Result
	Err error `json:"-"`
}

// SimilarityBatch scores pairs in chunks of concurrently awaited calls.
// Output order equals input order. Only context cancellation fails the whole batch.
func (s *Service) SimilarityBatch(ctx context.Context, pairs []Pair, creds *ai.Credentials) ([]BatchResult, error) {
	results := make([]BatchResult, len(pairs))
	if len(pairs) == 0 {
		return results, nil
	}
	creds = s.resolve(ctx, creds)

	for start := 0; start < len(pairs); start += s.batchSize {
		end := min(start+s.batchSize, len(pairs))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				p := pairs[i]
				if isEmpty(p.Text1) || isEmpty(p.Text2) {
					results[i].Err = ErrEmptyText
					return nil
				}
				r, err := s.similarity(gctx, p.Text1, p.Text2, creds)
				if err != nil {
					if ctx.Err() != nil {
						return err
					}
					results[i].Err = err
					return nil
				}
				results[i].Result = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
