// Package pairs finds participant pairs connected by direct reply edges inside a topic.
package pairs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

// ErrNoPair is returned by FindPair when the two users never replied to each other.
var ErrNoPair = errors.New("users have no direct reply edge")

// Canonical returns the order-independent key of a user pair: the lexically smaller id first.
func Canonical(a, b string) (user1, user2 string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Identifier derives user pairs from the reply tree of a topic.
type Identifier struct {
	docs   storage.DocumentStore
	logger *zap.Logger
}

// NewIdentifier creates an identifier over docs.
func NewIdentifier(docs storage.DocumentStore, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{docs: docs, logger: logger}
}

// IdentifyPairs returns every pair of distinct authors with at least one direct reply
// edge between them, ordered by canonical key.
func (id *Identifier) IdentifyPairs(ctx context.Context, topicID string) ([]models.UserPair, error) {
	docs, err := id.docs.ListTopicDocuments(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list topic documents: %w", err)
	}
	pairs := BuildPairs(docs)
	id.logger.Debug("identified user pairs",
		zap.String("topic_id", topicID),
		zap.Int("documents", len(docs)),
		zap.Int("pairs", len(pairs)),
	)
	return pairs, nil
}

// FindPair returns the pair of a and b in either order, or ErrNoPair.
func (id *Identifier) FindPair(ctx context.Context, topicID, a, b string) (*models.UserPair, error) {
	if a == b {
		return nil, ErrNoPair
	}
	pairs, err := id.IdentifyPairs(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if p := Lookup(pairs, a, b); p != nil {
		return p, nil
	}
	return nil, ErrNoPair
}

// Lookup returns the pair of a and b in either order, or nil.
func Lookup(pairs []models.UserPair, a, b string) *models.UserPair {
	if a == b {
		return nil
	}
	u1, u2 := Canonical(a, b)
	for i := range pairs {
		if pairs[i].User1ID == u1 && pairs[i].User2ID == u2 {
			return &pairs[i]
		}
	}
	return nil
}

// BuildPairs computes pairs from documents sorted by creation time.
// The earliest parentless document is the topic root; later parentless documents
// are treated as replies to it.
func BuildPairs(docs []*models.Document) []models.UserPair {
	if len(docs) == 0 {
		return []models.UserPair{}
	}
	t := newTree(docs)

	type acc struct {
		pair models.UserPair
		seen map[string]bool
	}
	byKey := make(map[[2]string]*acc)

	addDoc := func(a *acc, docID string) {
		if !a.seen[docID] {
			a.seen[docID] = true
			a.pair.DocIDs = append(a.pair.DocIDs, docID)
		}
	}

	for _, doc := range docs {
		parent := t.parentOf(doc)
		if parent == nil || parent.AuthorID == doc.AuthorID {
			continue
		}
		u1, u2 := Canonical(parent.AuthorID, doc.AuthorID)
		key := [2]string{u1, u2}
		a, ok := byKey[key]
		if !ok {
			a = &acc{
				pair: models.UserPair{
					User1ID:         u1,
					User2ID:         u2,
					DocIDs:          []string{},
					DiscussionPaths: []models.DiscussionPath{},
				},
				seen: make(map[string]bool),
			}
			byKey[key] = a
		}
		addDoc(a, parent.ID)
		addDoc(a, doc.ID)

		direction := models.DirectionUser2ToUser1
		if doc.AuthorID == u1 {
			direction = models.DirectionUser1ToUser2
		}
		a.pair.DiscussionPaths = append(a.pair.DiscussionPaths, models.DiscussionPath{
			Path:      [2]string{parent.ID, doc.ID},
			Depth:     t.depth(doc.ID),
			Direction: direction,
		})
	}

	out := make([]models.UserPair, 0, len(byKey))
	for _, a := range byKey {
		out = append(out, a.pair)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].User1ID != out[j].User1ID {
			return out[i].User1ID < out[j].User1ID
		}
		return out[i].User2ID < out[j].User2ID
	})
	return out
}
