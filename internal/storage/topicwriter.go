package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Miyazak1/linklore-sub001/internal/models"
)

// TopicWriter is the insert side of a topic, usable inside a transaction.
type TopicWriter interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	AddEvaluation(ctx context.Context, eval *models.Evaluation) error
	AddSummary(ctx context.Context, sum *models.Summary) error
	CreateDisagreement(ctx context.Context, d *models.Disagreement) error
}

type txWriter struct {
	tx *sqlx.Tx
}

func (w txWriter) CreateDocument(ctx context.Context, doc *models.Document) error {
	return insertDocument(ctx, w.tx, doc)
}

func (w txWriter) AddEvaluation(ctx context.Context, eval *models.Evaluation) error {
	return insertEvaluation(ctx, w.tx, eval)
}

func (w txWriter) AddSummary(ctx context.Context, sum *models.Summary) error {
	return insertSummary(ctx, w.tx, sum)
}

func (w txWriter) CreateDisagreement(ctx context.Context, d *models.Disagreement) error {
	return insertDisagreement(ctx, w.tx, d)
}

// WriteTopic runs fn in a single transaction. Nothing fn wrote is kept when it
// returns an error.
func (s *SQLiteStorage) WriteTopic(ctx context.Context, fn func(w TopicWriter) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(txWriter{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}
