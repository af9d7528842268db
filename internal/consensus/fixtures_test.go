package consensus

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "consensus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func goodScores() map[string]float64 {
	return map[string]float64{
		"viewpoint": 8, "logic": 8, "evidence": 8,
		"structure": 7, "language": 7, "innovation": 6,
	}
}

func poorScores() map[string]float64 {
	return map[string]float64{
		"viewpoint": 2, "logic": 2, "evidence": 2,
		"structure": 2, "language": 2, "innovation": 2,
	}
}

type docFixture struct {
	id, parent, author string
	scores             map[string]float64
	claims             []string
}

func seed(t *testing.T, store *storage.SQLiteStorage, topicID string, docs []docFixture) {
	t.Helper()
	ctx := context.Background()
	for i, f := range docs {
		doc := &models.Document{ID: f.id, TopicID: topicID, AuthorID: f.author, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if f.parent != "" {
			p := f.parent
			doc.ParentID = &p
		}
		if err := store.CreateDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
		if f.scores != nil {
			if err := store.AddEvaluation(ctx, &models.Evaluation{DocumentID: f.id, Scores: f.scores, CreatedAt: doc.CreatedAt}); err != nil {
				t.Fatal(err)
			}
		}
		if f.claims != nil {
			if err := store.AddSummary(ctx, &models.Summary{DocumentID: f.id, Claims: f.claims, CreatedAt: doc.CreatedAt}); err != nil {
				t.Fatal(err)
			}
		}
	}
}

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	now := base.Add(time.Hour)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
