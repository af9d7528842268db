package embedding

import (
	"context"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
)

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// vector derived from the text hash so that the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64
	// Err, when set, is returned from every call.
	Err error
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length embedding per text.
func (e *MockEmbedder) Embed(ctx context.Context, creds *ai.Credentials, texts []string) ([][]float64, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		h := HashString(text)
		emb := make([]float64, e.dimensions)
		for j := range emb {
			emb[j] = math.Sin(float64(h*(j+1)))*0.1 + 0.01
		}
		if n := floats.Norm(emb, 2); n > 0 {
			floats.Scale(1/n, emb)
		}
		out[i] = emb
	}
	return out, nil
}

// Calls returns how many times Embed was invoked.
func (e *MockEmbedder) Calls() int64 {
	return e.calls.Load()
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
