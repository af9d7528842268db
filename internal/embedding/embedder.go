// Package embedding defines the embedding provider contract used for semantic similarity.
package embedding

import (
	"context"

	"github.com/Miyazak1/linklore-sub001/internal/ai"
)

// Embedder produces one vector per input text, in input order, with the
// credentials supplied for the call. *ai.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, creds *ai.Credentials, texts []string) ([][]float64, error)
}

var _ Embedder = (*ai.Client)(nil)
