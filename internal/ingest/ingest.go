// Package ingest imports topic dumps (documents, evaluations, summaries and
// disagreements) into storage.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Miyazak1/linklore-sub001/internal/models"
	"github.com/Miyazak1/linklore-sub001/internal/storage"
)

// Writer is the write side of storage used by the importer. A topic is
// written in one transaction.
type Writer interface {
	WriteTopic(ctx context.Context, fn func(w storage.TopicWriter) error) error
}

var _ Writer = storage.Storage(nil)

// Result counts what an import wrote.
type Result struct {
	TopicID       string `json:"topic_id"`
	Documents     int    `json:"documents"`
	Evaluations   int    `json:"evaluations"`
	Summaries     int    `json:"summaries"`
	Disagreements int    `json:"disagreements"`
}

// Importer writes topic dumps to storage.
type Importer struct {
	store  Writer
	logger *zap.Logger
	now    func() time.Time
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(imp *Importer) { imp.logger = l }
}

// NewImporter creates an importer over store.
func NewImporter(store Writer, opts ...ImporterOption) *Importer {
	imp := &Importer{store: store, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.logger == nil {
		imp.logger = zap.NewNop()
	}
	return imp
}

// ReadDump decodes a topic dump from a .yaml, .yml or .json file.
func ReadDump(path string) (*models.TopicDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	var dump models.TopicDump
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &dump)
	case ".json":
		err = json.Unmarshal(data, &dump)
	default:
		return nil, fmt.Errorf("unsupported dump format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}
	return &dump, nil
}

// Import validates dump and writes it in one transaction: a failed import
// leaves nothing behind. Documents without a creation time get increasing
// times in dump order so the reply tree keeps its order. Documents are written
// in dump order; parents must precede their replies.
func (imp *Importer) Import(ctx context.Context, dump *models.TopicDump) (*Result, error) {
	if err := dump.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dump: %w", err)
	}
	var res *Result
	err := imp.store.WriteTopic(ctx, func(w storage.TopicWriter) error {
		res = &Result{TopicID: dump.TopicID}
		return imp.write(ctx, w, dump, res)
	})
	if err != nil {
		return nil, err
	}

	imp.logger.Info("topic imported",
		zap.String("topic_id", res.TopicID),
		zap.Int("documents", res.Documents),
		zap.Int("evaluations", res.Evaluations),
		zap.Int("summaries", res.Summaries),
		zap.Int("disagreements", res.Disagreements),
	)
	return res, nil
}

func (imp *Importer) write(ctx context.Context, w storage.TopicWriter, dump *models.TopicDump, res *Result) error {
	base := imp.now().UTC()

	for i, in := range dump.Documents {
		created := in.CreatedAt
		if created.IsZero() {
			created = base.Add(time.Duration(i) * time.Second)
		}
		doc := &models.Document{
			ID:        in.ID,
			TopicID:   dump.TopicID,
			AuthorID:  in.AuthorID,
			CreatedAt: created,
		}
		if in.ParentID != "" {
			parent := in.ParentID
			doc.ParentID = &parent
		}
		if err := w.CreateDocument(ctx, doc); err != nil {
			return fmt.Errorf("document %s: %w", in.ID, err)
		}
		res.Documents++

		if in.Scores != nil {
			eval := &models.Evaluation{
				DocumentID: in.ID,
				Scores:     in.Scores,
				Discipline: in.Discipline,
				CreatedAt:  created,
			}
			if err := w.AddEvaluation(ctx, eval); err != nil {
				return fmt.Errorf("evaluation for %s: %w", in.ID, err)
			}
			res.Evaluations++
		}
		if in.Claims != nil {
			sum := &models.Summary{
				DocumentID: in.ID,
				Claims:     NormalizeClaims(in.Claims),
				CreatedAt:  created,
			}
			if err := w.AddSummary(ctx, sum); err != nil {
				return fmt.Errorf("summary for %s: %w", in.ID, err)
			}
			res.Summaries++
		}
	}

	for _, in := range dump.Disagreements {
		d := &models.Disagreement{
			TopicID:       dump.TopicID,
			Title:         strings.TrimSpace(in.Title),
			Description:   strings.TrimSpace(in.Description),
			Severity:      in.Severity,
			Confidence:    in.Confidence,
			FalsePositive: in.FalsePositive,
			CreatedAt:     in.CreatedAt,
		}
		if err := w.CreateDisagreement(ctx, d); err != nil {
			return fmt.Errorf("disagreement %q: %w", in.Title, err)
		}
		res.Disagreements++
	}
	return nil
}

// ImportFile reads and imports the dump at path.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	dump, err := ReadDump(path)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, dump)
}
